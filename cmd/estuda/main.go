package main

import (
	"fmt"
	"os"
	"path/filepath"

	"estuda/internal/cli"
	"estuda/internal/ledger"
	"estuda/internal/llm"
	"estuda/internal/planner"
	"estuda/internal/store"
	"estuda/internal/tutor"

	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.estuda/estuda.db
	dbPath := os.Getenv("ESTUDA_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".estuda", "estuda.db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	llmCfg := llm.LoadConfig()
	var observer llm.Observer = llm.NoopObserver{}
	if llmCfg.LogCalls {
		observer = llm.NewLogObserver(os.Stderr)
	}
	client := llm.NewClient(llmCfg, observer)

	tasks := ledger.New(s)

	app := &cli.App{
		Tasks: tasks,
		Plans: planner.New(s, client, tasks),
		Tutor: tutor.New(client, observer),
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
