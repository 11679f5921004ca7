// Package debug implements --debug: a single-iteration, single-worker dry
// run through every configured request, printing a colorized
// request/response/assert trace. Adapted from the teacher's
// internal/debug/debug.go, rewired onto script.Context, model.RequestTemplate
// and the binder/httpclient packages instead of the teacher's ad hoc
// VariableProcessor and net/http.Request construction.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/surgeproj/surge/internal/binder"
	"github.com/surgeproj/surge/internal/feed"
	"github.com/surgeproj/surge/internal/httpclient"
	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

// Run executes every request in cfg.Runner.Requests once, in order, against
// one shared global store, printing a detailed trace of each step.
func Run(cfg *model.Config) error {
	fmt.Println()
	fmt.Printf("%s%s STARTING DEBUG MODE (dry run) %s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%sRunning 1 iteration across %d request(s)...%s\n\n", colorDim, len(cfg.Runner.Requests), colorReset)

	client := httpclient.New(httpclient.Options{})

	global := script.NewGlobal()
	if cfg.Runner.Global.Program != nil {
		initCtx := script.NewContext(global)
		if err := cfg.Runner.Global.Program.Execute(initCtx); err != nil {
			return fmt.Errorf("global script: %w", err)
		}
		initCtx.PromoteLocalToGlobal()
	}

	feeders := make(map[string]feed.Feeder, len(cfg.Runner.Data))
	for _, d := range cfg.Runner.Data {
		f, err := feed.NewCSVFeeder(d.Name, d.Path)
		if err != nil {
			return fmt.Errorf("data source %q: %w", d.Name, err)
		}
		feeders[d.Name] = f
	}

	allOK := true
	for i, tmpl := range cfg.Runner.Requests {
		printStepHeader(i+1, tmpl.Name)

		ctx := script.NewContext(global)
		if len(feeders) > 0 {
			feed.BindLocal(ctx, feeders)
		}

		ok, err := runStep(client, ctx, tmpl, cfg.Runner.BaseURL)
		if err != nil {
			fmt.Printf("\n%s step error: %v%s\n", colorRed, err, colorReset)
			allOK = false
			break
		}
		if !ok {
			allOK = false
		}
	}

	printSeparator()
	if allOK {
		fmt.Printf("%s%s DEBUG SESSION COMPLETED SUCCESSFULLY %s\n\n", colorBold, colorGreen, colorReset)
	} else {
		fmt.Printf("%s%s DEBUG SESSION COMPLETED WITH FAILURES %s\n\n", colorBold, colorRed, colorReset)
	}
	return nil
}

func runStep(client httpclient.Client, ctx *script.Context, tmpl *model.RequestTemplate, baseURL string) (bool, error) {
	if tmpl.Before != nil {
		if err := tmpl.Before.Execute(ctx); err != nil {
			printScriptError("before", err)
			return false, nil
		}
	}

	httpReq, err := tmpl.NewHTTPRequest(ctx, baseURL)
	if err != nil {
		printScriptError("template", err)
		return false, nil
	}
	printRequest(httpReq)

	start := time.Now()
	resp, err := client.Do(context.Background(), httpReq)
	latency := time.Since(start)
	if err != nil {
		printResponseError(err, latency)
		return false, nil
	}
	printResponse(resp, latency)

	binder.FromResponse(ctx, resp)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 400
	if tmpl.After != nil {
		if err := tmpl.After.Execute(ctx); err != nil {
			printAssertResult(err)
			return false, nil
		}
		fmt.Printf("  %s assertions passed%s\n", colorGreen, colorReset)
	} else {
		printStatusOnly(resp.StatusCode)
	}

	return ok, nil
}

func printStepHeader(n int, name string) {
	printSeparator()
	fmt.Printf("%s%s STEP %d: %s%s\n", colorBold, colorMagenta, n, name, colorReset)
	printSeparator()
}

func printSeparator() {
	fmt.Printf("%s%s%s\n", colorDim, strings.Repeat("-", 60), colorReset)
}

func printRequest(req *model.HTTPRequest) {
	fmt.Printf("\n%s[REQUEST]%s\n", colorBold, colorReset)
	fmt.Printf("%s%s%s %s%s%s\n", colorBold, colorGreen, req.Method, colorCyan, req.URI, colorReset)

	if len(req.Headers) > 0 {
		fmt.Printf("%sHeaders:%s\n", colorDim, colorReset)
		for _, h := range req.Headers {
			fmt.Printf("  %s%s:%s %s\n", colorYellow, h.Name, colorReset, h.Value)
		}
	}
	if len(req.Body) > 0 {
		fmt.Printf("%sBody:%s\n", colorDim, colorReset)
		printFormattedJSON(string(req.Body), "  ")
	}
}

func printResponse(resp *model.HTTPResponse, latency time.Duration) {
	fmt.Printf("\n%s[RESPONSE]%s\n", colorBold, colorReset)

	statusColor := colorGreen
	if resp.StatusCode >= 400 {
		statusColor = colorRed
	} else if resp.StatusCode >= 300 {
		statusColor = colorYellow
	}
	fmt.Printf("%sStatus:%s %s%d%s %s(time: %s)%s\n",
		colorDim, colorReset, statusColor, resp.StatusCode, colorReset,
		colorDim, latency.Round(time.Millisecond), colorReset)

	var keys []string
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fmt.Printf("%sHeaders:%s\n", colorDim, colorReset)
		for _, k := range keys {
			fmt.Printf("  %s%s:%s %s\n", colorYellow, k, colorReset, strings.Join(resp.Headers[k], ", "))
		}
	}

	if len(resp.Body) > 0 {
		fmt.Printf("%sBody:%s\n", colorDim, colorReset)
		body := string(resp.Body)
		if len(body) > 2000 {
			body = body[:2000] + fmt.Sprintf("\n  ... (truncated, %d bytes total)", len(resp.Body))
		}
		printFormattedJSON(body, "  ")
	}
}

func printResponseError(err error, latency time.Duration) {
	fmt.Printf("\n%s[RESPONSE]%s\n", colorBold, colorReset)
	fmt.Printf("%s request failed%s %s(time: %s)%s\n", colorRed, colorReset, colorDim, latency.Round(time.Millisecond), colorReset)
	fmt.Printf("  error: %v\n", err)
}

func printScriptError(phase string, err error) {
	fmt.Printf("\n%s[%s SCRIPT]%s %s%v%s\n", colorBold, strings.ToUpper(phase), colorReset, colorRed, err, colorReset)
}

func printAssertResult(err error) {
	fmt.Printf("\n%s[ASSERT]%s %s%v%s\n", colorBold, colorReset, colorRed, err, colorReset)
}

func printStatusOnly(code int) {
	if code >= 200 && code < 400 {
		fmt.Printf("  %s status %d ok%s\n", colorGreen, code, colorReset)
	} else {
		fmt.Printf("  %s status %d%s\n", colorRed, code, colorReset)
	}
}

func printFormattedJSON(s, prefix string) {
	var obj interface{}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		if pretty, err := json.MarshalIndent(obj, prefix, "  "); err == nil {
			fmt.Printf("%s%s\n", prefix, string(pretty))
			return
		}
	}
	for _, line := range strings.Split(s, "\n") {
		fmt.Printf("%s%s\n", prefix, line)
	}
}
