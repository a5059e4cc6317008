package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/fpt/klein-window/internal/config"
	"github.com/fpt/klein-window/internal/infra"
	"github.com/fpt/klein-window/pkg/agent/state"
	"github.com/fpt/klein-window/pkg/client"
	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
	"github.com/fpt/klein-window/pkg/window"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "kwin - trim a conversation history to a token or message budget")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Counters:")
	fmt.Fprintln(w, "  count                   One unit per message")
	fmt.Fprintln(w, "  heuristic               ~4 characters per token (default)")
	fmt.Fprintln(w, "  tiktoken                Local BPE tokenizer (cl100k_base or -model)")
	fmt.Fprintln(w, "  anthropic               Anthropic count_tokens API (ANTHROPIC_API_KEY)")
	fmt.Fprintln(w, "  gemini                  Gemini countTokens API (GEMINI_API_KEY)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  kwin -history chat.json -max 4000                  # Newest messages within 4000 tokens")
	fmt.Fprintln(w, "  kwin -history chat.json -counter count -max 10      # Last 10 messages")
	fmt.Fprintln(w, "  kwin -history chat.json -start-on user -end-on ai   # Align the window to turns")
	fmt.Fprintln(w, "  kwin -history chat.json -strategy first -o head.json")
	fmt.Fprintln(w)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kwin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var historyPath = fs.String("history", "", "Path to the conversation history JSON file")
	var settingsPath = fs.String("settings", "", "Path to settings file (YAML or JSON)")
	var maxBudget = fs.Int("max", 0, "Maximum budget as measured by the counter")
	var counterBackend = fs.String("counter", "", "Counter backend (count, heuristic, tiktoken, anthropic, gemini)")
	var model = fs.String("model", "", "Model for tiktoken or remote counters")
	var keepSystem = fs.Bool("keep-system", true, "Keep a leading system message")
	var startOn = fs.String("start-on", "", "Comma-separated roles the window may start on")
	var endOn = fs.String("end-on", "", "Comma-separated roles the window may end on")
	var strategy = fs.String("strategy", "", "Which end to keep (last or first)")
	var allowPartial = fs.Bool("allow-partial", false, "Include the boundary message with only the lines that fit")
	var allowEmpty = fs.Bool("allow-empty", false, "Return an empty window instead of failing")
	var output = fs.String("o", "", "Write the window to this file instead of stdout")
	var verbose = fs.Bool("v", false, "Enable verbose logging (debug level)")
	var help = fs.Bool("h", false, "Show this help message")

	fs.Usage = func() {
		printUsage(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *help {
		fs.Usage()
		return 0
	}

	if *historyPath == "" && fs.NArg() > 0 {
		*historyPath = fs.Arg(0)
	}
	if *historyPath == "" {
		fmt.Fprintln(stderr, "Error: -history is required")
		fs.Usage()
		return 2
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load settings: %v\n", err)
		return 1
	}

	// Flags given on the command line override settings
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["max"] {
		settings.Trim.MaxBudget = *maxBudget
	}
	if set["counter"] {
		settings.Counter.Backend = *counterBackend
	}
	if set["model"] {
		settings.Counter.Model = *model
	}
	if set["keep-system"] {
		settings.Trim.KeepSystem = *keepSystem
	}
	if set["start-on"] {
		if settings.Trim.StartOn, err = roleNames(*startOn); err != nil {
			fmt.Fprintf(stderr, "Error: invalid -start-on: %v\n", err)
			return 2
		}
	}
	if set["end-on"] {
		if settings.Trim.EndOn, err = roleNames(*endOn); err != nil {
			fmt.Fprintf(stderr, "Error: invalid -end-on: %v\n", err)
			return 2
		}
	}
	if set["strategy"] {
		settings.Trim.Strategy = *strategy
	}
	if set["allow-partial"] {
		settings.Trim.AllowPartial = *allowPartial
	}
	if set["allow-empty"] {
		settings.Trim.AllowEmpty = *allowEmpty
	}
	if *verbose {
		settings.Log.Level = string(pkgLogger.LogLevelDebug)
	}

	logOpts := settings.LoggerOptions()
	logOpts.Console = stderr
	pkgLogger.SetGlobalLogger(logOpts)
	logger := pkgLogger.NewComponentLogger("kwin")

	if *verbose {
		logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Verbose logging enabled", "log_level", settings.Log.Level)
	}
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Loaded settings",
		"backend", settings.Counter.Backend, "max_budget", settings.Trim.MaxBudget, "strategy", settings.Trim.Strategy)

	if err := config.ValidateSettings(settings); err != nil {
		logger.Error("Settings validation failed", "error", err)
		return 1
	}

	counter, err := client.NewTokenCounter(ctx, settings.Counter)
	if err != nil {
		logger.Error("Failed to create token counter", "backend", settings.Counter.Backend, "error", err)
		return 1
	}
	if limit := client.MaxContextTokens(counter); limit > 0 && settings.Trim.MaxBudget > limit {
		logger.Warn("Budget exceeds the model context window", "budget", settings.Trim.MaxBudget, "context_window", limit)
	}

	opts, err := settings.ToWindowOptions(counter)
	if err != nil {
		logger.Error("Invalid trim settings", "error", err)
		return 1
	}

	history := state.NewMessageStateWithRepository(infra.NewMessageHistoryRepository(*historyPath))
	if err := history.LoadFromFile(); err != nil {
		logger.Error("Failed to load history", "path", *historyPath, "error", err)
		return 1
	}

	msgs, err := history.Window(ctx, opts)
	if err != nil {
		if errors.Is(err, window.ErrBudgetUnsatisfiable) {
			logger.Error("No message fits the budget (use -allow-partial or -allow-empty)", "budget", opts.MaxBudget)
		} else {
			logger.Error("Failed to select window", "error", err)
		}
		return 1
	}

	logger.InfoWithIntention(pkgLogger.IntentionTrim, "Selected window",
		"kept", len(msgs), "dropped", len(history.GetMessages())-len(msgs), "budget", opts.MaxBudget)

	if *output != "" {
		if err := infra.NewMessageHistoryRepository(*output).Save(msgs); err != nil {
			logger.Error("Failed to write window", "path", *output, "error", err)
			return 1
		}
		logger.InfoWithIntention(pkgLogger.IntentionSuccess, "Wrote window", "path", *output)
		return 0
	}

	data, err := infra.EncodeHistory(msgs)
	if err != nil {
		logger.Error("Failed to encode window", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}

// roleNames parses a comma separated role list into canonical role names
func roleNames(s string) ([]string, error) {
	types, err := message.ParseMessageTypes(s)
	if err != nil {
		return nil, err
	}
	roles := make([]string, len(types))
	for i, t := range types {
		roles[i] = t.String()
	}
	return roles, nil
}
