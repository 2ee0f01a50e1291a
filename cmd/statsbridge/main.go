// Package main is the entry point for statsbridge.
package main

import (
	"context"
	"os"
	"path/filepath"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "statsbridge.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "statsbridge",
	Short: "Stats enrichment and caching bridge for the link index",
	Long: `statsbridge sits between the feed hydration path and the slower link
index service, resolving post and profile engagement stats through a
cache-aside layer with a fixed TTL. Lookups never fail: upstream trouble
degrades to zero-valued stats while the hydration path stays up.`,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/statsbridge/"+defaultConfigFile+")")
}

// findConfigFile searches for the config file in default locations.
func findConfigFile() string {
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "statsbridge", defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultConfigFile // will error on load if absent
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return findConfigFile()
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
