package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dpshade/pocket-compose/internal/config"
	"github.com/dpshade/pocket-compose/internal/importer"
	"github.com/dpshade/pocket-compose/internal/logger"
	"github.com/dpshade/pocket-compose/internal/service"
)

func main() {
	var libDir, poolID, name, description string
	var window int
	var yes bool

	flag.StringVar(&libDir, "dir", "", "Library directory")
	flag.StringVar(&poolID, "id", "", "Pool id (default: source directory name)")
	flag.StringVar(&name, "name", "", "Pool display name")
	flag.StringVar(&description, "description", "", "Pool description")
	flag.IntVar(&window, "window", 0, "Bucket window for imported wildcards")
	flag.BoolVar(&yes, "yes", false, "Overwrite an existing pool without asking")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: import-wildcards [--id pool] [--window n] <directory>")
		fmt.Println("\nEach *.txt file becomes a wildcard, one value per line.")
		fmt.Println("text.txt holds the pool's texts, separated by blank lines.")
		os.Exit(2)
	}

	cfg, err := config.Load(libDir)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc, err := service.NewService(cfg, log)
	if err != nil {
		fmt.Printf("Error initializing service: %v\n", err)
		os.Exit(1)
	}

	result, err := importer.NewWildcardImporter("").Import(importer.ImportOptions{
		Dir:         flag.Arg(0),
		PoolID:      poolID,
		Name:        name,
		Description: description,
		Window:      window,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	pool := result.Pool
	fmt.Printf("Pool %s: %d texts, %d wildcards\n", pool.ID, len(pool.Text), len(pool.Wildcards))
	for _, w := range pool.Wildcards {
		fmt.Printf("  - %s (%d values)\n", w.Name, len(w.Values))
	}
	for _, rel := range result.Skipped {
		fmt.Printf("  skipped %s: no values\n", rel)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	existing, err := svc.ListPools()
	if err != nil {
		fmt.Printf("Error listing pools: %v\n", err)
		os.Exit(1)
	}
	exists := false
	for _, id := range existing {
		if id == pool.ID {
			exists = true
			break
		}
	}

	if exists && !yes {
		fmt.Printf("\nPool %s already exists. Overwrite? (y/N): ", pool.ID)
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Import cancelled")
			return
		}
	}

	if err := svc.SavePool(pool); err != nil {
		fmt.Printf("Error saving pool: %v\n", err)
		os.Exit(1)
	}
	log.Info("pool imported", "pool", pool.ID, "wildcards", len(pool.Wildcards), "texts", len(pool.Text))
	fmt.Printf("Imported pool %s\n", pool.ID)
}
