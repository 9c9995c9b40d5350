// spoiler is the Story Spoiler API checker: it runs the end-to-end suite
// against a deployment, drives the story endpoints by hand, and serves an
// in-process twin of the API for offline runs.
//
// Usage:
//
//	spoiler test [path]                          Run the built-in suite, or scenario file(s)
//	spoiler login                                Authenticate and print the access token
//	spoiler stories list                         List all stories
//	spoiler stories create <title> <desc> [url]  Create a story
//	spoiler stories edit <id> <title> <desc> [url]
//	spoiler stories delete <id>                  Delete a story
//	spoiler twin [--port N] [--verbose]          Serve the fake Story Spoiler API
//	spoiler init                                 Write a default storyspoiler.yaml
//	spoiler version                              Print the version
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/phuslu/log"

	"github.com/storyspoiler/storyspoiler/internal/client"
	"github.com/storyspoiler/storyspoiler/internal/config"
	"github.com/storyspoiler/storyspoiler/internal/scenario"
	"github.com/storyspoiler/storyspoiler/internal/twin"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// errTestsFailed signals a completed run with failures; the report is
// already printed, so main only sets the exit code.
var errTestsFailed = errors.New("tests failed")

func main() {
	cmd, args, configPath := parseArgs(os.Args[1:])

	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		if cmd == "" {
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "version", "--version", "-v":
		fmt.Printf("spoiler version %s\n", version)
		return
	case "init":
		err = cmdInit(configPath, args)
	case "test":
		err = withConfig(configPath, func(cfg *config.Config) error { return cmdTest(ctx, cfg, args) })
	case "login":
		err = withConfig(configPath, func(cfg *config.Config) error { return cmdLogin(ctx, cfg) })
	case "stories":
		err = withConfig(configPath, func(cfg *config.Config) error { return cmdStories(ctx, cfg, args) })
	case "twin":
		err = withConfig(configPath, func(cfg *config.Config) error { return cmdTwin(ctx, args) })
	default:
		fmt.Fprintf(os.Stderr, "spoiler: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, errTestsFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "spoiler: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs extracts the subcommand, positional args, and --config path.
func parseArgs(raw []string) (command string, args []string, configPath string) {
	var filtered []string
	for i := 0; i < len(raw); i++ {
		if raw[i] == "--config" && i+1 < len(raw) {
			configPath = raw[i+1]
			i++
			continue
		}
		if v, ok := strings.CutPrefix(raw[i], "--config="); ok {
			configPath = v
			continue
		}
		filtered = append(filtered, raw[i])
	}
	configPath = config.ResolvePath(configPath)

	if len(filtered) == 0 {
		return "", nil, configPath
	}
	return filtered[0], filtered[1:], configPath
}

func printUsage() {
	fmt.Printf(`spoiler %s, Story Spoiler API checker

Usage:
  spoiler [--config <path>] <command> [arguments]

Commands:
  test [path]                          Run the built-in suite, or a scenario file/directory
  login                                Authenticate and print the access token
  stories list                         List all stories
  stories create <title> <desc> [url]  Create a story
  stories edit <id> <title> <desc> [url]
                                       Replace a story
  stories delete <id>                  Delete a story
  twin [--port N] [--verbose]          Serve the fake Story Spoiler API (default port 8080)
  init [--force]                       Write a default config file
  version                              Print the spoiler version

Options:
  --config <path>   Path to config (default: ./storyspoiler.yaml)

Environment:
  SPOILER_CONFIG     Override default config path
  SPOILER_BASE_URL   Override base_url
  SPOILER_USERNAME   Override username
  SPOILER_PASSWORD   Override password
  SPOILER_TIMEOUT    Override timeout (e.g. 15s)
  SPOILER_LOG_LEVEL  Override log_level (debug, info, warn, error)
`, version)
}

// withConfig loads the config, installs the logger and calls fn.
func withConfig(path string, fn func(*config.Config) error) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)
	return fn(cfg)
}

func setupLogger(level string) {
	log.DefaultLogger = log.Logger{
		Level: log.ParseLevel(level),
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: log.IsTerminal(os.Stderr.Fd()),
		},
	}
}

func newClient(cfg *config.Config) *client.Client {
	return client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout.Duration))
}

// ---------------------------------------------------------------------------
// spoiler init
// ---------------------------------------------------------------------------

func cmdInit(path string, args []string) error {
	force := len(args) > 0 && args[0] == "--force"
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// ---------------------------------------------------------------------------
// spoiler test [path]
// ---------------------------------------------------------------------------

func cmdTest(ctx context.Context, cfg *config.Config, args []string) error {
	var scenarios []*scenario.Scenario
	if len(args) > 0 {
		loaded, err := scenario.LoadPath(args[0])
		if err != nil {
			return err
		}
		scenarios = loaded
	} else {
		s, err := scenario.Builtin()
		if err != nil {
			return err
		}
		scenarios = []*scenario.Scenario{s}
	}

	c := newClient(cfg)
	defer c.Close()

	runner := scenario.NewRunner(c,
		scenario.WithCredentials(cfg.Username, cfg.Password),
		scenario.WithLogger(&log.DefaultLogger),
	)

	fmt.Printf("Target: %s\n", cfg.BaseURL)

	var totals scenario.Totals
	for _, s := range scenarios {
		result, err := runner.Run(ctx, s)
		totals.Add(scenario.WriteResult(os.Stdout, s, result, err))
	}
	scenario.WriteSummary(os.Stdout, totals)

	if totals.Failed > 0 {
		return errTestsFailed
	}
	return nil
}

// ---------------------------------------------------------------------------
// spoiler login
// ---------------------------------------------------------------------------

func cmdLogin(ctx context.Context, cfg *config.Config) error {
	c := newClient(cfg)
	defer c.Close()

	token, err := c.Authenticate(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	log.Info().Str("username", cfg.Username).Str("base_url", cfg.BaseURL).Msg("authenticated")
	fmt.Println(token)
	return nil
}

// ---------------------------------------------------------------------------
// spoiler stories <sub>
// ---------------------------------------------------------------------------

func cmdStories(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: spoiler stories list|create|edit|delete")
	}
	sub, rest := args[0], args[1:]

	c := newClient(cfg)
	defer c.Close()
	if _, err := c.Authenticate(ctx, cfg.Username, cfg.Password); err != nil {
		return err
	}

	switch sub {
	case "list":
		stories, err := c.ListStories(ctx)
		if err != nil {
			return err
		}
		if len(stories) == 0 {
			fmt.Println("No stories.")
			return nil
		}
		for _, s := range stories {
			fmt.Printf("  %-38s %s\n", s.ID, s.Title)
			if s.Description != "" {
				fmt.Printf("  %-38s %s\n", "", s.Description)
			}
		}
		return nil

	case "create":
		in, err := storyInput(rest)
		if err != nil {
			return fmt.Errorf("usage: spoiler stories create <title> <description> [url]")
		}
		res, err := c.CreateStory(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", res.StoryID, res.Msg)
		return nil

	case "edit":
		if len(rest) == 0 {
			return fmt.Errorf("usage: spoiler stories edit <id> <title> <description> [url]")
		}
		in, err := storyInput(rest[1:])
		if err != nil {
			return fmt.Errorf("usage: spoiler stories edit <id> <title> <description> [url]")
		}
		msg, err := c.EditStory(ctx, rest[0], in)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil

	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: spoiler stories delete <id>")
		}
		msg, err := c.DeleteStory(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil

	default:
		return fmt.Errorf("unknown stories command %q (expected list, create, edit or delete)", sub)
	}
}

func storyInput(args []string) (client.StoryInput, error) {
	if len(args) < 2 || len(args) > 3 {
		return client.StoryInput{}, errors.New("expected title, description and optional url")
	}
	in := client.StoryInput{Title: args[0], Description: args[1]}
	if len(args) == 3 {
		in.URL = args[2]
	}
	return in, nil
}

// ---------------------------------------------------------------------------
// spoiler twin
// ---------------------------------------------------------------------------

type twinFlags struct {
	port    int
	verbose bool
}

func parseTwinFlags(args []string) (twinFlags, error) {
	f := twinFlags{port: 8080}
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--verbose" || a == "-v":
			f.verbose = true
		case a == "--port" && i+1 < len(args):
			p, err := strconv.Atoi(args[i+1])
			if err != nil {
				return f, fmt.Errorf("invalid --port %q", args[i+1])
			}
			f.port = p
			i++
		case strings.HasPrefix(a, "--port="):
			p, err := strconv.Atoi(strings.TrimPrefix(a, "--port="))
			if err != nil {
				return f, fmt.Errorf("invalid %s", a)
			}
			f.port = p
		default:
			return f, fmt.Errorf("unknown twin flag %q", a)
		}
	}
	if f.port < 0 || f.port > 65535 {
		return f, fmt.Errorf("port %d out of range", f.port)
	}
	return f, nil
}

func cmdTwin(ctx context.Context, args []string) error {
	flags, err := parseTwinFlags(args)
	if err != nil {
		return err
	}

	opts := twin.Options{Port: flags.port, Verbose: flags.verbose}
	if flags.verbose {
		l := log.DefaultLogger
		l.Level = log.DebugLevel
		opts.Logger = &l
	} else {
		opts.Logger = &log.DefaultLogger
	}

	tw, err := twin.New(opts)
	if err != nil {
		return err
	}
	ln, err := tw.Listen()
	if err != nil {
		return err
	}

	port := ln.Addr().(*net.TCPAddr).Port
	fmt.Printf("Story Spoiler twin listening on http://localhost:%d\n", port)
	fmt.Printf("  login: %s / %s\n", twin.DefaultUsername, twin.DefaultPassword)
	fmt.Printf("  run:   SPOILER_BASE_URL=http://localhost:%d spoiler test\n", port)

	return tw.Serve(ctx, ln)
}
