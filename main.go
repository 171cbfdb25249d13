package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dpshade/pocket-compose/internal/cli"
	"github.com/dpshade/pocket-compose/internal/config"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/logger"
	"github.com/dpshade/pocket-compose/internal/service"
	"github.com/dpshade/pocket-compose/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "0.1.0"

func printHelp() {
	fmt.Printf(`pocket-compose - Wildcard prompt composition in the terminal

USAGE:
    pocket-compose [OPTIONS] [COMMAND]

OPTIONS:
    --help          Show this help information
    --version       Print version information
    --init          Initialize a new template library
    --dir           Library directory (default: $POCKET_COMPOSE_DIR or ~/.pocket-compose)
    --verbose       Show error causes

COMMANDS:
    (no command)       Start interactive TUI mode
    list, ls           List templates
    pools              List external text pools
    show <id>          Show a template definition
    resolve <id>       Resolve one composition
    outputs <id>       List terminal outputs of a composition
    buckets <id>       Show a bucket-composition
    sample <id>        Resolve an evenly spread sample
    export <id>        Export the locked sub-product as JSON lines
    wildcards <id>     List wildcard values
    help               Show CLI command help

EXAMPLES:
    pocket-compose                                          # Start interactive mode
    pocket-compose --init                                   # Initialize new library
    pocket-compose resolve portrait --id 42                 # Resolve composition 42
    pocket-compose resolve portrait --set mood=calm --format json
    pocket-compose buckets portrait --bucket 3 --slot 1
    pocket-compose export portrait --lock mood=calm,angry --output batch.jsonl

STORAGE:
    Default directory: ~/.pocket-compose
    Override with: %s=<path>
`, config.EnvDir)
}

func main() {
	var showVersion bool
	var initLib bool
	var showHelp bool
	var verbose bool
	var dir string

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&initLib, "init", false, "Initialize a new template library")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&verbose, "verbose", false, "Show error causes")
	flag.StringVar(&dir, "dir", "", "Library directory")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("pocket-compose version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	errHandler := apperrors.NewCLIErrorHandler(verbose, log)

	svc, err := service.NewService(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, errHandler.HandleError(err))
		os.Exit(1)
	}

	if initLib {
		if err := svc.InitLibrary(); err != nil {
			fmt.Fprintln(os.Stderr, errHandler.HandleError(err))
			os.Exit(1)
		}
		if err := cfg.Save(); err != nil {
			fmt.Fprintln(os.Stderr, errHandler.HandleError(apperrors.StorageError("write config", err)))
			os.Exit(1)
		}
		fmt.Println("Initialized Pocket Compose library in", cfg.RootDir)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check if we have command line arguments for CLI mode
	args := flag.Args()
	if len(args) > 0 {
		cliHandler := cli.NewCLI(ctx, svc)
		if err := cliHandler.ExecuteCommand(args); err != nil {
			fmt.Fprintln(os.Stderr, errHandler.HandleError(err))
			log.Sync()
			os.Exit(1)
		}
		return
	}

	// No arguments provided - start TUI mode
	model, err := ui.NewModel(ctx, svc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.Error("tui exited", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
