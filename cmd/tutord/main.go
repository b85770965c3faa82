package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/index"
	"github.com/mohammad-safakhou/tutor/internal/ingest"
	"github.com/mohammad-safakhou/tutor/internal/llm"
	srv "github.com/mohammad-safakhou/tutor/internal/server"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{Use: "tutord", Short: "Conversational AI tutor backend"}
	root.AddCommand(serveCMD(), ingestCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}

func ingestCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the vector index from the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)

			provider, err := llm.NewProvider(cfg.LLM)
			if err != nil {
				logger.Printf("llm provider unavailable, building lexical index only: %v", err)
				provider = llm.Unavailable{Reason: err}
			}

			ix, err := index.New(cfg.Knowledge.PersistDir, provider.EmbeddingFunc(), logger)
			if err != nil {
				return err
			}
			docs, err := ingest.Load(cfg.Knowledge.BaseDir, logger)
			if err != nil {
				return fmt.Errorf("load knowledge base: %w", err)
			}
			chunks := ingest.NewSplitter().SplitAll(docs)
			logger.Printf("split %d documents into %d chunks", len(docs), len(chunks))

			if err := ix.Rebuild(context.Background(), chunks); err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			logger.Printf("index rebuilt at %s", cfg.Knowledge.PersistDir)
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
