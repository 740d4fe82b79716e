// Package main is the textloom operation-stream replay tool.
//
// It reads newline-delimited resync protocol messages, applies the
// operations they carry to a fresh document replica, and prints the
// resulting text. Useful for inspecting captured operation logs and for
// verifying that a stream converges.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/session"
	"github.com/dshills/textloom/internal/sync"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	basePath   string
	logLevel   string
	replica    uint
	input      string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	sessOpts, err := buildOptions(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	sess := session.New(sessOpts...)

	in := os.Stdin
	if opts.input != "" {
		f, err := os.Open(opts.input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening input: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	applied, err := replay(sess, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "applied %d operations\n", applied)
	if n := sess.DeferredLen(); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d operations still waiting on missing dependencies\n", n)
	}
	fmt.Print(sess.Text())
	return 0
}

// replay decodes one protocol message per line and applies the
// operations carried by ops_response messages. Other message kinds are
// skipped: a captured wire log contains digest traffic too.
func replay(sess *session.Session, in *os.File) (int, error) {
	applied := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := sync.Decode(line)
		if err != nil {
			return applied, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ops, ok := msg.(sync.OpsResponse); ok {
			sess.Apply(ops.Ops)
			applied += len(ops.Ops)
		}
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("reading input: %w", err)
	}
	return applied, nil
}

func buildOptions(opts options) ([]session.Option, error) {
	var sessOpts []session.Option

	if opts.configPath != "" {
		cfg, err := session.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		fromCfg, err := cfg.Options()
		if err != nil {
			return nil, err
		}
		sessOpts = append(sessOpts, fromCfg...)
	}

	// Flags override the config file.
	if opts.replica != 0 {
		sessOpts = append(sessOpts, session.WithReplica(clock.ReplicaID(opts.replica)))
	}
	if opts.logLevel != "" {
		sessOpts = append(sessOpts, session.WithLogOutput(session.ParseLogLevel(opts.logLevel), os.Stderr))
	}
	if opts.basePath != "" {
		base, err := os.ReadFile(opts.basePath)
		if err != nil {
			return nil, fmt.Errorf("reading base document: %w", err)
		}
		sessOpts = append(sessOpts, session.WithContent(string(base)))
	}
	return sessOpts, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to TOML configuration file (shorthand)")
	flag.StringVar(&opts.basePath, "base", "", "File holding the initial document text")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.UintVar(&opts.replica, "replica", 0, "Replica ID for this document copy")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "textloom - replay a captured operation stream into a document\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textloom [options] [ops.jsonl]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  textloom ops.jsonl              Replay a log into an empty document\n")
		fmt.Fprintf(os.Stderr, "  textloom -base doc.txt ops.jsonl  Replay on top of existing text\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("textloom %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if opts.replica > 0xFFFF {
		fmt.Fprintf(os.Stderr, "Error: replica must fit in 16 bits\n")
		os.Exit(1)
	}
	opts.input = flag.Arg(0)

	return opts
}
