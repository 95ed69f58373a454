package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/HSMDove/feedpulse/internal/config"
	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/fetcher"
	"github.com/HSMDove/feedpulse/internal/folder"
	"github.com/HSMDove/feedpulse/internal/storage"
)

func newFetchCmd() *cobra.Command {
	var folderID int64

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one synchronous refresh of a folder and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.Migrate(db); err != nil {
				return err
			}

			var (
				folderStorage  = storage.NewFolderStorage(db)
				sourceStorage  = storage.NewSourceStorage(db)
				contentStorage = storage.NewContentStorage(db)
				client         = fetch.NewClient(cfg.HTTPTimeout, cfg.RequestsPerSec)
				orchestrator   = fetcher.New(client, cfg.FilterKeywords, cfg.FetchConcurrency)
			)

			// One-shot run: no enrichment or notification, just ingest.
			coordinator := folder.New(folderStorage, sourceStorage, contentStorage, orchestrator, nil, nil)

			summary, err := coordinator.FetchFolder(cmd.Context(), folderID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added: %d, skipped: %d\n", summary.ItemsAdded, summary.Skipped)
			for _, e := range summary.Errors {
				log.Printf("[ERROR] %s", e)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&folderID, "folder", 0, "folder id to refresh")
	_ = cmd.MarkFlagRequired("folder")

	return cmd
}
