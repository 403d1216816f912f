package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/application/handlers"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/config"
	"github.com/ersonp/memora/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/memora/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new memora database",
		Long: "Creates a .memora directory with default configuration and the SQLite schema. " +
			"When OPENAI_API_KEY is set the Qdrant story collection is created as well.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewInitHandler(openStore, openCollections)
	result, err := handler.Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Printf("Database: %s\n", result.DatabasePath)
	if result.CollectionName != "" {
		fmt.Printf("Created Qdrant collection: %s\n", result.CollectionName)
	} else {
		fmt.Println("Story search disabled (set OPENAI_API_KEY to enable)")
	}
	fmt.Println("Memora initialized successfully!")
	return nil
}

func openStore(cfg *config.Config) (ports.GraphStore, error) {
	return sqlite.NewRepository(cfg.SQLite)
}

func openCollections(cfg *config.Config) (ports.CollectionManager, func() error, error) {
	repo, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
