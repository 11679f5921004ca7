package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/surgeproj/surge/internal/debug"
	"github.com/surgeproj/surge/internal/orchestrator"
	"github.com/surgeproj/surge/internal/report"
	"github.com/surgeproj/surge/internal/tui"
	"github.com/surgeproj/surge/pkg/config"
	"github.com/surgeproj/surge/pkg/model"
)

type overrideFlags []string

func (o *overrideFlags) String() string     { return "" }
func (o *overrideFlags) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\nfatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	runtime.GOMAXPROCS(runtime.NumCPU())

	var (
		configPath string
		overrides  overrideFlags
		debugMode  bool
		noTUI      bool
	)

	flag.StringVar(&configPath, "config", "./config.yaml", "Path to YAML configuration file")
	flag.Var(&overrides, "overrides", "Dotted-path config override, key.sub=value (repeatable)")
	flag.BoolVar(&debugMode, "debug", false, "Run a single-iteration dry run with a colorized request/response trace")
	flag.BoolVar(&noTUI, "no-tui", false, "Plain progress output instead of the terminal dashboard (for CI)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nreceived interrupt, shutting down gracefully...")
		cancel()
	}()

	if debugMode {
		if err := debug.Run(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "debug mode error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	start := time.Now()
	run, err := orchestrator.Start(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start run: %v\n", err)
		os.Exit(1)
	}

	var final *model.Report
	if noTUI {
		final = runPlain(cfg, run)
	} else {
		final = runTUI(cfg, run)
	}
	duration := time.Since(start)

	if final == nil {
		return
	}

	if err := report.GenerateJSON(final, duration, "report.json"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report.json: %v\n", err)
	} else {
		fmt.Println("report saved to report.json")
	}
	if err := report.GenerateHTML(final, cfg, duration, "report.html"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report.html: %v\n", err)
	} else {
		fmt.Println("interactive report saved to report.html")
	}
}

func runTUI(cfg *model.Config, run *orchestrator.Run) *model.Report {
	p := tea.NewProgram(tui.NewModel(cfg.Runner, run.Snapshots, run.Done))
	m, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		os.Exit(1)
	}
	final, ok := m.(tui.MainModel)
	if !ok {
		return nil
	}
	return final.Report()
}

// runPlain drains the same channels the TUI would consume, printing one
// progress line per snapshot instead of rendering bubbletea views — the
// path spec.md's CI-friendly --no-tui flag takes.
func runPlain(cfg *model.Config, run *orchestrator.Run) *model.Report {
	fmt.Printf("surge: running against %s at %d req/s for %s\n",
		cfg.Runner.BaseURL, cfg.Runner.TargetRPS, cfg.Runner.Duration)

	for snap := range run.Snapshots {
		fmt.Printf("\r%d requests, %d success, %d fail", snap.Requests, snap.Success, snap.Fail)
	}
	fmt.Println()

	final := <-run.Done
	if final == nil {
		return nil
	}
	fmt.Printf("done: %d requests, %d success, %d fail\n", final.Requests, final.Success, final.Fail)
	return final
}
