package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semsurvey/graph"
	"github.com/c360studio/semsurvey/ingest"
	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/vocabulary"
)

func ingestCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ingest <instrument-id> <question-id> <answer>",
		Short: "Map one answer locally and print the resulting payload",
		Long: `Ingest runs a single question answer through the mapping and validation
pipeline with a local echo backend. Nothing is written to the graph;
the command prints the payload that would be ingested.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(configPath, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	return cmd
}

func runIngest(configPath, instrumentID, questionID, rawAnswer string) error {
	logger := slog.Default()

	cfg, err := loadServeConfig(configPath, logger)
	if err != nil {
		return err
	}

	vocab, err := vocabulary.LoadGlobal(cfg.Registry.VocabularyPath)
	if err != nil {
		return fmt.Errorf("load vocabulary registry: %w", err)
	}
	questions, err := mapping.LoadGlobal(cfg.Registry.QuestionMappingPath)
	if err != nil {
		return fmt.Errorf("load question mapping registry: %w", err)
	}

	service := ingest.NewService(graph.NewEchoWriter(), ingest.NewMapper(questions, vocab), vocab,
		ingest.WithLogger(logger))

	result, err := service.IngestQuestionResponse(context.Background(),
		instrumentID, questionID, parseAnswer(rawAnswer), time.Now().UTC(), nil)
	if err != nil {
		return err
	}

	if result.Status == ingest.StatusRejected {
		return fmt.Errorf("rejected: %s", result.Reason)
	}
	return nil
}

// parseAnswer interprets a CLI argument the way a JSON body would: numbers
// stay numeric, everything else is a string.
func parseAnswer(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
