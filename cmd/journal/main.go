package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"journal/internal/config"
	"journal/internal/domain"
	"journal/internal/journal"
	"journal/internal/logger"
	"journal/internal/tui"
)

const usage = `Usage:
  journal [--config=config.yaml] analyze [--json] [--file entry.txt | text...]
  journal [--config=config.yaml] ask [--json] --entries entries.yaml "question"
  journal [--config=config.yaml] chat --entries entries.yaml
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional; uses ~/.config/journal/config.yaml if not provided)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	log := logger.New(cfg.Log)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "analyze":
		err = runAnalyze(ctx, cfg, log, rest, stdin, stdout)
	case "ask":
		err = runAsk(ctx, cfg, log, rest, stdout)
	case "chat":
		err = runChat(ctx, cfg, log, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		var ee *domain.ExtractionError
		if errors.As(err, &ee) {
			log.Debug("unparseable completions", slog.String("raw", ee.Raw), slog.String("repaired", ee.Repaired))
		}
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func runAnalyze(ctx context.Context, cfg *config.AppConfig, log *slog.Logger, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	file := fs.String("file", "", "Read the entry from a file ('-' for stdin)")
	asJSON := fs.Bool("json", false, "Print the record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := entryContent(*file, fs.Args(), stdin)
	if err != nil {
		return err
	}
	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		return err
	}

	rec, err := newExtractor(cfg, completer, log).Analyze(ctx, content)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, rec)
	}
	renderSentiment(stdout, rec)
	return nil
}

func runAsk(ctx context.Context, cfg *config.AppConfig, log *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	entriesPath := fs.String("entries", "", "YAML or JSON file with journal entries")
	asJSON := fs.Bool("json", false, "Print the answer record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	synth, entries, err := setupQA(cfg, log, *entriesPath)
	if err != nil {
		return err
	}
	rec := synth.Ask(ctx, question, entries)
	if *asJSON {
		return writeJSON(stdout, rec)
	}
	renderAnswer(stdout, rec)
	return nil
}

func runChat(ctx context.Context, cfg *config.AppConfig, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	entriesPath := fs.String("entries", "", "YAML or JSON file with journal entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	synth, entries, err := setupQA(cfg, log, *entriesPath)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(tui.NewWithContext(ctx, synth, entries), tea.WithAltScreen()).Run()
	return err
}

func entryContent(file string, args []string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	case file != "":
		data, err := os.ReadFile(file)
		return string(data), err
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.New("entry text or --file is required")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadEntries(path string, log *slog.Logger) ([]domain.JournalEntry, error) {
	if path == "" {
		return nil, errors.New("--entries is required")
	}
	return journal.LoadFile(path, log)
}
