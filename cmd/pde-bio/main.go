// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pde-bio CLI: publication data
// extraction from the NCBI Entrez databases.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wreport/pde-bio/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, otherwise the secret
// value for key, otherwise "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the pde-bio CLI.
var rootCmd = &cobra.Command{
	Use:   "pde-bio",
	Short: "Publication data extraction from NCBI Entrez",
	Long: `pde-bio collects publication statistics from the NCBI Entrez databases.

The counts subcommand records how many articles match a search term per
month across a year range. The articles subcommand walks the resulting
summary table and fetches per-article metadata (authors, journal, date,
abstract). Both write CSV tables; the articles stage resumes a partial
run from a checkpoint.

NCBI requires a contact email on every request and permits 3 requests
per second, or 10 with an API key. Place them in .secrets/entrez-email
and .secrets/ncbi-api-key, or pass --email and --api-key.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pde-bio.yaml or ~/.config/pde-bio/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pde-bio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pde-bio"))
		}
	}

	viper.SetEnvPrefix("PDE_BIO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
