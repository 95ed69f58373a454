// Copyright (c) 2025, HSMDove. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

var version = "1.0.0"

func main() {
	// A local .env feeds the env pass of the config loader.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "feedpulse",
		Short:   "Ingest content from RSS, websites, YouTube, X and TikTok into folders",
		Long:    "Feedpulse fetches heterogeneous feeds per folder, deduplicates and filters the items, and refreshes each folder on its own background interval.",
		Version: version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newSourcesCmd())
	rootCmd.AddCommand(newFoldersCmd())

	return rootCmd
}
