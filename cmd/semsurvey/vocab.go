package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/c360studio/semsurvey/vocabulary"
)

func vocabCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the loaded vocabulary sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocab(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	return cmd
}

func runVocab(configPath string) error {
	cfg, err := loadServeConfig(configPath, slog.Default())
	if err != nil {
		return err
	}

	vocab, err := vocabulary.LoadGlobal(cfg.Registry.VocabularyPath)
	if err != nil {
		return fmt.Errorf("load vocabulary registry: %w", err)
	}

	if version := vocab.Metadata()["version"]; version != "" {
		fmt.Printf("version: %s\n", version)
	}

	summary := vocab.Summary()
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s:\n", name)
		for _, value := range summary[name] {
			fmt.Printf("  - %s\n", value)
		}
	}
	return nil
}
