package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/HSMDove/feedpulse/internal/config"
	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
	"github.com/HSMDove/feedpulse/internal/storage"
)

const feedProbeTimeout = 15 * time.Second

func openDB() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", config.Get().DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage feed sources",
	}
	cmd.AddCommand(newSourcesListCmd())
	cmd.AddCommand(newSourcesAddCmd())
	cmd.AddCommand(newSourcesDeleteCmd())
	return cmd
}

func newSourcesListCmd() *cobra.Command {
	var folderID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources, optionally for one folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources := storage.NewSourceStorage(db)

			var list []model.Source
			if folderID > 0 {
				list, err = sources.SourcesByFolder(cmd.Context(), folderID)
			} else {
				list, err = sources.Sources(cmd.Context())
			}
			if err != nil {
				return err
			}

			for _, s := range list {
				state := "active"
				if !s.Active {
					state = "inactive"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\tfolder=%d\t%s\t%s\t%s\t%s\n",
					s.ID, s.FolderID, s.Platform, state, s.Name, s.URL)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&folderID, "folder", 0, "limit to one folder")
	return cmd
}

func newSourcesAddCmd() *cobra.Command {
	var (
		folderID int64
		name     string
		platform string
		rawURL   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a source to a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			p := model.Platform(platform)
			switch p {
			case model.PlatformRSS, model.PlatformWebsite, model.PlatformYouTube,
				model.PlatformTwitter, model.PlatformTikTok:
			default:
				return fmt.Errorf("unknown platform %q", platform)
			}

			// Plain feeds are probed before insert so a typo'd URL is
			// caught here rather than on the first scheduled run.
			if p == model.PlatformRSS {
				ctx, cancel := context.WithTimeout(cmd.Context(), feedProbeTimeout)
				defer cancel()
				client := fetch.NewClient(feedProbeTimeout, config.Get().RequestsPerSec)
				if _, err := client.Feed(ctx, rawURL); err != nil {
					return fmt.Errorf("url does not serve a parseable feed: %w", err)
				}
			}

			id, err := storage.NewSourceStorage(db).Add(cmd.Context(), model.Source{
				FolderID: folderID,
				Name:     name,
				Platform: p,
				URL:      rawURL,
				Active:   true,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "source added with id %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&folderID, "folder", 0, "owning folder id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&platform, "platform", "rss", "rss|website|youtube|twitter|tiktok")
	cmd.Flags().StringVar(&rawURL, "url", "", "origin URL or handle")
	_ = cmd.MarkFlagRequired("folder")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newSourcesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source id %q", args[0])
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.NewSourceStorage(db).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "source %d deleted\n", id)
			return nil
		},
	}
}
