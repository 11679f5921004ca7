// Package config loads the YAML document described in spec.md §6 into a
// model.Config: parse the raw document into a typed shape, apply
// dotted-path --overrides against the yaml.Node tree, then compile every
// script field with pkg/script and every request into a model.RequestTemplate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
	"gopkg.in/yaml.v3"
)

// YAMLHeader is one {name: value} single-entry map from a request's headers
// list; YAML naturally decodes "headers: [ {k: v}, ... ]" into this shape.
type YAMLHeader map[string]string

// YAMLScripts wraps a request's before/after/global script source, matching
// the "{ scripts: string }" shape in spec.md §6.
type YAMLScripts struct {
	Scripts string `yaml:"scripts"`
}

type YAMLRequest struct {
	Name    string       `yaml:"name"`
	Method  string       `yaml:"method"`
	Path    string       `yaml:"path"`
	Headers []YAMLHeader `yaml:"headers,omitempty"`
	Body    string       `yaml:"body,omitempty"`
	Timeout string       `yaml:"timeout"`
	Before  *YAMLScripts `yaml:"before,omitempty"`
	After   *YAMLScripts `yaml:"after,omitempty"`
}

type YAMLDataSource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type YAMLRunner struct {
	TargetRPS uint32          `yaml:"target_rps"`
	Duration  string          `yaml:"duration"`
	BatchSize yaml.Node       `yaml:"batch_size"`
	BaseURL   string          `yaml:"base_url"`
	Global    *YAMLScripts    `yaml:"global,omitempty"`
	Requests  []YAMLRequest   `yaml:"requests"`
	StopIf    string          `yaml:"stop_if,omitempty"`
	Data      []YAMLDataSource `yaml:"data,omitempty"`
}

type YAMLConfig struct {
	LogLevel string     `yaml:"log_level,omitempty"`
	Parallel uint8      `yaml:"parallel"`
	Runner   YAMLRunner `yaml:"runner"`
}

// LoadConfig reads path, applies overrides as dotted-path patches against
// the raw yaml.Node tree, then decodes and compiles the result into a
// model.Config.
func LoadConfig(path string, overrides []string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for _, o := range overrides {
		if err := applyOverride(&doc, o); err != nil {
			return nil, fmt.Errorf("config: override %q: %w", o, err)
		}
	}

	var y YAMLConfig
	if err := doc.Decode(&y); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return build(&y)
}

// applyOverride applies one "key.sub=value" patch to the document root's
// mapping, walking dotted path segments and creating intermediate mapping
// nodes as needed. The final segment's value is parsed as an int if
// possible, else kept as a string scalar. Unknown intermediate paths that
// cannot be created (scalar-valued ancestor) fail loudly.
func applyOverride(doc *yaml.Node, patch string) error {
	eq := strings.IndexByte(patch, '=')
	if eq < 0 {
		return fmt.Errorf("expected key.sub=value")
	}
	path := strings.Split(patch[:eq], ".")
	value := patch[eq+1:]

	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			root.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("document root is not a mapping")
	}

	node := root
	for i, key := range path {
		last := i == len(path)-1
		found := findMapValue(node, key)
		if found == nil {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			var valNode *yaml.Node
			if last {
				valNode = scalarFor(value)
			} else {
				valNode = &yaml.Node{Kind: yaml.MappingNode}
			}
			node.Content = append(node.Content, keyNode, valNode)
			found = valNode
		} else if last {
			*found = *scalarFor(value)
		}
		if !last {
			if found.Kind != yaml.MappingNode {
				return fmt.Errorf("path segment %q is not a mapping", key)
			}
			node = found
		}
	}
	return nil
}

func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func scalarFor(value string) *yaml.Node {
	if _, err := strconv.Atoi(value); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: value}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func build(y *YAMLConfig) (*model.Config, error) {
	cfg := &model.Config{Parallel: y.Parallel}
	if cfg.Parallel == 0 {
		cfg.Parallel = 1
	}

	if y.LogLevel != "" {
		lvl, ok := model.ParseLogLevel(y.LogLevel)
		if !ok {
			return nil, fmt.Errorf("unknown log_level %q", y.LogLevel)
		}
		cfg.LogLevel = lvl
	}

	r := &cfg.Runner
	r.TargetRPS = y.Runner.TargetRPS
	r.BaseURL = y.Runner.BaseURL

	dur, err := time.ParseDuration(y.Runner.Duration)
	if err != nil {
		return nil, fmt.Errorf("runner.duration: %w", err)
	}
	r.Duration = dur

	bs, err := decodeBatchSize(&y.Runner.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("runner.batch_size: %w", err)
	}
	r.BatchSize = bs

	if y.Runner.Global != nil && y.Runner.Global.Scripts != "" {
		prog, err := script.Parse(y.Runner.Global.Scripts)
		if err != nil {
			return nil, fmt.Errorf("runner.global: %w", err)
		}
		r.Global = model.GlobalScript{Program: prog}
	}

	if len(y.Runner.Requests) == 0 {
		return nil, fmt.Errorf("runner.requests: at least one request is required")
	}
	for i, yr := range y.Runner.Requests {
		tmpl, err := buildRequestTemplate(yr)
		if err != nil {
			return nil, fmt.Errorf("runner.requests[%d] %q: %w", i, yr.Name, err)
		}
		r.Requests = append(r.Requests, tmpl)
	}

	if y.Runner.StopIf != "" {
		r.CircuitBreaker = &model.CircuitBreakerConfig{StopIf: y.Runner.StopIf}
	}
	for _, d := range y.Runner.Data {
		r.Data = append(r.Data, model.DataSource{Name: d.Name, Path: d.Path})
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeBatchSize(n *yaml.Node) (model.BatchSize, error) {
	if n == nil || n.Kind == 0 {
		return model.BatchSize{Auto: true}, nil
	}
	if n.Tag == "!!str" || n.Value == "auto" {
		if n.Value != "" && n.Value != "auto" {
			return model.BatchSize{}, fmt.Errorf("must be a positive integer or \"auto\", got %q", n.Value)
		}
		return model.BatchSize{Auto: true}, nil
	}
	var fixed uint32
	if err := n.Decode(&fixed); err != nil {
		return model.BatchSize{}, fmt.Errorf("must be a positive integer or \"auto\": %w", err)
	}
	return model.BatchSize{Fixed: fixed}, nil
}

func buildRequestTemplate(yr YAMLRequest) (*model.RequestTemplate, error) {
	var headers []model.Header
	for _, h := range yr.Headers {
		for k, v := range h {
			headers = append(headers, model.Header{Name: k, Value: v})
		}
	}

	timeoutStr := yr.Timeout
	if timeoutStr == "" {
		timeoutStr = "10s"
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	var before, after *script.Program
	if yr.Before != nil && yr.Before.Scripts != "" {
		p, err := script.Parse(yr.Before.Scripts)
		if err != nil {
			return nil, fmt.Errorf("before: %w", err)
		}
		before = p
	}
	if yr.After != nil && yr.After.Scripts != "" {
		p, err := script.Parse(yr.After.Scripts)
		if err != nil {
			return nil, fmt.Errorf("after: %w", err)
		}
		after = p
	}

	if yr.Name == "" || yr.Method == "" || yr.Path == "" {
		return nil, fmt.Errorf("name, method and path are required")
	}

	return model.NewRequestTemplate(yr.Name, yr.Method, yr.Path, headers, yr.Body, timeout, before, after), nil
}
