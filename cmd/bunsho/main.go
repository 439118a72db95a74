// Package main is the bunsho CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/cli"
	"github.com/hyperjump/bunsho/internal/config"
	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/rag"
	"github.com/hyperjump/bunsho/internal/server"
	"github.com/hyperjump/bunsho/internal/storage"
	"github.com/hyperjump/bunsho/internal/tui"
	"github.com/hyperjump/bunsho/internal/watcher"
	"github.com/hyperjump/bunsho/pkg/utils"
)

var version = "dev"

const defaultConfigFile = "config.yaml"

// loadConfig loads config from path. With an empty path it uses config.yaml in the current
// directory when present and the built-in defaults otherwise. Returns the config and the
// path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return config.Default(), "", nil
		}
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; credentials may come from the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "chat":
		runChat()
	case "version", "--version", "-v":
		fmt.Printf("bunsho version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) (configPath *string, debug *bool) {
	configPath = fs.String("config", "", "config file path (default: ./config.yaml if present)")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, debug
}

// setup loads the config and builds a logger. logPaths redirects the logger, which the
// chat command needs to keep the terminal clean.
func setup(configPath string, debugFlag bool, logPaths ...string) (*config.Config, *zap.Logger, bool) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLoggerTo(debugMode, logPaths...)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger, debugMode
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger, _ := setup(*configPath, *debug)
	defer logger.Sync()

	pipeline, err := rag.New(context.Background(), cfg, os.LookupEnv, rag.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", zap.Error(err))
	}
	defer pipeline.Close()

	transcript, err := storage.New(cfg.Storage.TranscriptPath)
	if err != nil {
		logger.Fatal("Failed to initialize transcript store", zap.Error(err))
	}
	defer transcript.Close()

	sessions := rag.NewManager(pipeline, transcript)
	defer sessions.Close()

	srv := server.NewServer(sessions, transcript, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bunsho ask [flags] <file> <question...>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))
	if fs.NArg() < 2 {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	path, question := fs.Arg(0), buildQuestion(fs.Args()[1:])

	cfg, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	session, pipeline, err := openSession(ctx, cfg, logger, debugMode)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()
	defer session.Close()

	if _, err := analyzeFile(ctx, session, path); err != nil {
		fmt.Printf("Failed to analyze %s: %v\n", path, err)
		os.Exit(1)
	}
	answer, err := session.Ask(ctx, question)
	if err != nil {
		fmt.Printf("Failed to answer: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		fmt.Printf("Failed to write answer: %v\n", err)
		os.Exit(1)
	}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	watch := fs.Bool("watch", false, "re-analyze the document when the file changes")
	logFile := fs.String("log", "bunsho-chat.log", "log file used while the chat is running")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bunsho chat [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, logger, debugMode := setup(*configPath, *debug, *logFile)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session, pipeline, err := openSession(ctx, cfg, logger, debugMode)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()
	defer session.Close()

	info, err := analyzeFile(ctx, session, path)
	if err != nil {
		fmt.Printf("Failed to analyze %s: %v\n", path, err)
		os.Exit(1)
	}

	pi := pipeline.Info()
	summary := fmt.Sprintf("%s (%d chunks) · %s · %s", info.Name, info.Chunks, pi.Embedder, pi.Backend)
	program := tea.NewProgram(tui.New(ctx, session, summary), tea.WithAltScreen())

	if *watch {
		w, err := watcher.NewWatcher(path, func(p string) {
			info, err := analyzeFile(ctx, session, p)
			if err != nil {
				logger.Warn("re-analysis failed, keeping previous document", zap.String("path", p), zap.Error(err))
				program.Send(tui.DocumentMsg{Err: err})
				return
			}
			logger.Info("document re-analyzed", zap.String("path", p), zap.Int("chunks", info.Chunks))
			program.Send(tui.DocumentMsg{Name: info.Name, Chunks: info.Chunks})
		},
			watcher.WithLogger(logger),
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		)
		if err != nil {
			fmt.Printf("Failed to watch %s: %v\n", path, err)
			os.Exit(1)
		}
		if err := w.Start(ctx); err != nil {
			fmt.Printf("Failed to watch %s: %v\n", path, err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	if _, err := program.Run(); err != nil {
		fmt.Printf("Chat failed: %v\n", err)
		os.Exit(1)
	}
}

// openSession builds a pipeline and a single session with an in-memory transcript.
func openSession(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*rag.Session, *rag.Pipeline, error) {
	var opts []rag.Option
	if debug {
		opts = append(opts, rag.WithLogger(logger))
	}
	pipeline, err := rag.New(ctx, cfg, os.LookupEnv, opts...)
	if err != nil {
		return nil, nil, err
	}
	return rag.NewSession("cli", pipeline, storage.NewMemoryTranscript()), pipeline, nil
}

func analyzeFile(ctx context.Context, session *rag.Session, path string) (*rag.DocumentInfo, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return session.Analyze(ctx, doc)
}

// readDocument loads path with its media type inferred from the extension.
func readDocument(path string) (*models.Document, error) {
	mediaType, err := models.MediaTypeFromFilename(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &models.Document{Name: filepath.Base(path), MediaType: mediaType, Content: content}, nil
}

// buildQuestion joins positional args with spaces so questions work with or without
// shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves the flags defined on fs (and their values) in front of the
// positionals, wherever they appear, so that flag.Parse sees them. The flag package stops
// at the first non-flag argument, so "bunsho ask doc.pdf -output json what is it" would
// otherwise leave -output unparsed. Positionals keep their order, and words that are not
// defined flags (such as "-5") stay positional. Everything after "--" is positional.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		name, hasValue := flagName(a)
		f := fs.Lookup(name)
		if name == "" || f == nil {
			positionals = append(positionals, a)
			continue
		}
		flags = append(flags, a)
		if !hasValue && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positionals) > 0 && strings.HasPrefix(positionals[0], "-") {
		flags = append(flags, "--")
	}
	return append(flags, positionals...)
}

// flagName returns the name of a "-name", "--name" or "-name=value" argument and whether
// the value is inline. Non-flag arguments return "".
func flagName(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if k := strings.IndexByte(name, '='); k >= 0 {
		return name[:k], true
	}
	return name, false
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func printUsage() {
	fmt.Println(`bunsho - Ask questions about a document

Usage:
  bunsho server [flags]                     Start the HTTP API
  bunsho ask [flags] <file> <question...>   Analyze a document and answer one question
  bunsho chat [flags] <file>                Chat about a document in the terminal
  bunsho version                            Show version
  bunsho help                               Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml if present, else built-in defaults)
  --debug            Enable debug logging

Ask Flags:
  --output string    Output format: text or json (default: text)

Chat Flags:
  --watch            Re-analyze the document when the file changes
  --log string       Log file while the chat runs (default: bunsho-chat.log)

Supported documents: .txt and .pdf

Examples:
  bunsho ask report.pdf "What is the total revenue?"
  bunsho ask --output json notes.txt what color is the sky
  bunsho chat --watch notes.txt
  bunsho server --config ./config.yaml`)
}
