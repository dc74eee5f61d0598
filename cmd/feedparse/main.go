package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/lysyi3m/rss-sieve/app/client"
	"github.com/lysyi3m/rss-sieve/app/feed"
	"github.com/lysyi3m/rss-sieve/app/filter"
	"golang.org/x/sync/errgroup"
)

type options struct {
	Encoding       string   `short:"e" long:"encoding" description:"Charset of the inputs, overrides detection"`
	Concurrency    int      `short:"c" long:"concurrency" default:"4" description:"Number of inputs parsed at once"`
	PolicyFile     string   `short:"p" long:"policy" description:"YAML sanitizer policy file"`
	IDExclusions   []string `long:"id-exclude" description:"Feed URL or host whose native item IDs are ignored (repeatable)"`
	RejectEntities bool     `long:"reject-entities" description:"Reject any input containing <!ENTITY"`
	Diagnostics    bool     `short:"d" long:"diagnostics" description:"Include loader diagnostics in the output"`
	Timeout        int      `long:"timeout" default:"10" description:"Fetch timeout in seconds for URL inputs"`
	UserAgent      string   `long:"user-agent" default:"RSS Sieve/1.0" description:"User agent for URL inputs"`
	Debug          bool     `long:"debug" description:"Enable debug logging"`

	Args struct {
		Inputs []string `positional-arg-name:"FILE|URL" required:"1"`
	} `positional-args:"yes"`
}

type result struct {
	Input       string     `json:"input"`
	Feed        *feed.Feed `json:"feed,omitempty"`
	Error       string     `json:"error,omitempty"`
	Diagnostics []string   `json:"diagnostics,omitempty"`
}

var errInputsFailed = errors.New("one or more inputs failed")

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if opts.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("feedparse failed", "error", err)
		os.Exit(1)
	}
}

// run parses every input and writes the results as a JSON array in input
// order. Per-input failures are reported in the output and make run return
// errInputsFailed after everything was written.
func run(ctx context.Context, opts options, out io.Writer) error {
	sanitizer, err := newSanitizer(opts.PolicyFile)
	if err != nil {
		return err
	}

	httpClient, err := client.New(client.Options{
		UserAgent: opts.UserAgent,
		Timeout:   time.Duration(opts.Timeout) * time.Second,
	})
	if err != nil {
		return err
	}

	results := make([]result, len(opts.Args.Inputs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, input := range opts.Args.Inputs {
		g.Go(func() error {
			parser := feed.NewParser(sanitizer,
				feed.WithIDExclusions(opts.IDExclusions),
				feed.WithEntityPrescan(opts.RejectEntities),
			)
			results[i] = parseInput(gCtx, parser, httpClient, input, opts)
			return nil
		})
	}
	_ = g.Wait()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	for _, r := range results {
		if r.Error != "" {
			return errInputsFailed
		}
	}
	return nil
}

func newSanitizer(policyFile string) (*filter.Filter, error) {
	if policyFile == "" {
		return filter.New(nil), nil
	}
	policy, err := filter.LoadPolicy(policyFile)
	if err != nil {
		return nil, err
	}
	return filter.New(policy), nil
}

func parseInput(ctx context.Context, parser *feed.Parser, httpClient *client.Client, input string, opts options) result {
	r := result{Input: input}

	data, encoding, fetchURL, err := readInput(ctx, httpClient, input)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if opts.Encoding != "" {
		encoding = opts.Encoding
	}

	parsed, err := parser.Run(data, encoding, fetchURL)
	if opts.Diagnostics {
		for _, d := range parser.Diagnostics() {
			r.Diagnostics = append(r.Diagnostics, d.String())
		}
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Feed = parsed
	return r
}

func readInput(ctx context.Context, httpClient *client.Client, input string) ([]byte, string, string, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		resp, err := httpClient.Fetch(ctx, input, client.Validators{})
		if err != nil {
			return nil, "", "", err
		}
		return resp.Body, resp.Encoding, resp.URL, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, "", "", nil
}
