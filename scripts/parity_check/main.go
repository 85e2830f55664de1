// Command parity_check replays read-only LMS requests against two deployments
// and reports envelope differences between them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Auth     bool   `json:"auth"`
	Critical bool   `json:"critical"`
}

type targetFile struct {
	Ignore  []string `json:"ignore"`
	Targets []target `json:"targets"`
}

type reply struct {
	status   int
	body     []byte
	duration time.Duration
}

type comparison struct {
	Target      target
	Candidate   reply
	Baseline    reply
	StatusMatch bool
	BodyMatch   bool
	Err         error
}

func (c comparison) breaking() bool {
	if !c.Target.Critical {
		return false
	}
	return c.Err != nil || !c.StatusMatch || !c.BodyMatch
}

func (c comparison) differs() bool {
	return c.Err != nil || !c.StatusMatch || !c.BodyMatch
}

type checker struct {
	client    *http.Client
	candidate string
	baseline  string
	token     string
	ignore    map[string]struct{}
}

func main() {
	var (
		candidate   string
		baseline    string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&candidate, "candidate", "http://localhost:8080", "Base URL of the deployment under test")
	flag.StringVar(&baseline, "baseline", "http://localhost:3000", "Base URL of the reference deployment")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "parity_check", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&token, "token", os.Getenv("PARITY_BEARER_TOKEN"), "Bearer token for authenticated targets")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	logr, _ := zap.NewDevelopment()
	defer func() { _ = logr.Sync() }()

	file, err := loadTargets(targetsPath)
	if err != nil {
		logr.Fatal("failed to load targets", zap.String("path", targetsPath), zap.Error(err))
	}

	chk := newChecker(&http.Client{Timeout: timeout}, candidate, baseline, token, file.Ignore)
	results := chk.run(context.Background(), file.Targets)
	printReport(os.Stdout, results)

	var breaking, optional int
	for _, res := range results {
		switch {
		case res.breaking():
			breaking++
		case res.differs():
			optional++
		}
	}
	logr.Info("parity check finished", zap.Int("breaking", breaking), zap.Int("optional", optional))
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return &file, nil
}

func newChecker(client *http.Client, candidate, baseline, token string, ignore []string) *checker {
	set := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		set[key] = struct{}{}
	}
	return &checker{
		client:    client,
		candidate: strings.TrimRight(candidate, "/"),
		baseline:  strings.TrimRight(baseline, "/"),
		token:     token,
		ignore:    set,
	}
}

func (c *checker) run(ctx context.Context, targets []target) []comparison {
	results := make([]comparison, 0, len(targets))
	for _, tgt := range targets {
		results = append(results, c.compare(ctx, tgt))
	}
	return results
}

func (c *checker) compare(ctx context.Context, tgt target) comparison {
	comp := comparison{Target: tgt}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.fetch(gctx, c.candidate, tgt)
		if err != nil {
			return fmt.Errorf("candidate request failed: %w", err)
		}
		comp.Candidate = r
		return nil
	})
	g.Go(func() error {
		r, err := c.fetch(gctx, c.baseline, tgt)
		if err != nil {
			return fmt.Errorf("baseline request failed: %w", err)
		}
		comp.Baseline = r
		return nil
	})
	if err := g.Wait(); err != nil {
		comp.Err = err
		return comp
	}

	comp.StatusMatch = comp.Candidate.status == comp.Baseline.status
	comp.BodyMatch = c.bodiesEqual(comp.Candidate.body, comp.Baseline.body)
	return comp
}

func (c *checker) fetch(ctx context.Context, base string, tgt target) (reply, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, nil)
	if err != nil {
		return reply{}, err
	}
	req.Header.Set("Accept", "application/json")
	if tgt.Auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return reply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reply{}, fmt.Errorf("read body: %w", err)
	}
	return reply{status: resp.StatusCode, body: body, duration: time.Since(start)}, nil
}

// bodiesEqual compares two envelopes structurally, skipping ignored keys at any depth.
func (c *checker) bodiesEqual(a, b []byte) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return strings.TrimSpace(string(a)) == strings.TrimSpace(string(b))
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(c.strip(aj), c.strip(bj))
}

func (c *checker) strip(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if _, skip := c.ignore[k]; skip {
				continue
			}
			out[k] = c.strip(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = c.strip(inner)
		}
		return out
	default:
		return val
	}
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Parity Report")
	fmt.Fprintln(w, "=============")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if res.differs() {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Err != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Err)
			continue
		}
		fmt.Fprintf(w, "  Candidate: %d (%s) | Baseline: %d (%s)\n",
			res.Candidate.status, res.Candidate.duration, res.Baseline.status, res.Baseline.duration)
		fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
