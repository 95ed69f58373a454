package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HSMDove/feedpulse/internal/model"
	"github.com/HSMDove/feedpulse/internal/storage"
)

func newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage folders",
	}
	cmd.AddCommand(newFoldersListCmd())
	cmd.AddCommand(newFoldersAddCmd())
	cmd.AddCommand(newFoldersDeleteCmd())
	return cmd
}

func newFoldersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			folders, err := storage.NewFolderStorage(db).Folders(cmd.Context())
			if err != nil {
				return err
			}

			for _, f := range folders {
				auto := "manual"
				if f.AutoFetch {
					auto = fmt.Sprintf("every %dm", f.FetchInterval)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", f.ID, f.Name, auto)
			}
			return nil
		},
	}
}

func newFoldersAddCmd() *cobra.Command {
	var (
		name     string
		interval int
		auto     bool
		webhook  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := storage.NewFolderStorage(db).Add(cmd.Context(), model.Folder{
				Name:          name,
				AutoFetch:     auto,
				FetchInterval: interval,
				WebhookURL:    webhook,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "folder added with id %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "folder name")
	cmd.Flags().IntVar(&interval, "interval", 60, "refresh interval in minutes")
	cmd.Flags().BoolVar(&auto, "auto", false, "enable background refresh")
	cmd.Flags().StringVar(&webhook, "webhook", "", "per-folder webhook URL")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newFoldersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a folder and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid folder id %q", args[0])
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.NewFolderStorage(db).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "folder %d deleted\n", id)
			return nil
		},
	}
}
