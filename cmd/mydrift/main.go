package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mydrift-ai/mydrift/internal/config"
	"github.com/mydrift-ai/mydrift/internal/docstore"
	"github.com/mydrift-ai/mydrift/internal/embeddings"
	"github.com/mydrift-ai/mydrift/internal/factory"
	"github.com/mydrift-ai/mydrift/internal/logger"
	"github.com/mydrift-ai/mydrift/internal/searchindex"
)

// app bundles the wired dependencies shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	enc    embeddings.Provider
	index  searchindex.Index
	stores map[string]docstore.Store
	close  func() error
}

func newApp(ctx context.Context) (*app, error) {
	log := logger.New("mydrift")

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	idx, err := factory.NewSearchIndex(cfg, log)
	if err != nil {
		return nil, err
	}
	stores, closeFn, err := factory.NewDocumentStores(cfg, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		enc:    factory.NewEmbeddingProvider(ctx, cfg, log),
		index:  idx,
		stores: stores,
		close:  closeFn,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "mydrift",
		Short:         "Personal memory indexing and recall over chat and mail archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the vector collection and document tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app) error { return runInit(ctx, a, os.Stdout) })
		},
	}
	rootCmd.AddCommand(initCmd)

	indexCmd := &cobra.Command{
		Use:   "index <export.json>",
		Short: "Chunk, embed and index a conversation export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			batchSize, _ := cmd.Flags().GetInt("batch-size")
			return withApp(ctx, func(a *app) error {
				return runIndex(ctx, a, args[0], dryRun, batchSize, os.Stdout)
			})
		},
	}
	indexCmd.Flags().Bool("dry-run", false, "Chunk and embed without writing")
	indexCmd.Flags().Int("batch-size", 0, "Override the write batch size")
	rootCmd.AddCommand(indexCmd)

	mailCmd := &cobra.Command{
		Use:   "import-mail",
		Short: "Import recent Gmail messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("access-token")
			maxResults, _ := cmd.Flags().GetInt64("max-results")
			query, _ := cmd.Flags().GetString("query")
			if token == "" {
				return fmt.Errorf("--access-token required")
			}
			return withApp(ctx, func(a *app) error {
				return runImportMail(ctx, a, token, maxResults, query, os.Stdout)
			})
		},
	}
	mailCmd.Flags().String("access-token", "", "OAuth2 access token with gmail.readonly scope (required)")
	mailCmd.Flags().Int64("max-results", 0, "Cap on messages to import")
	mailCmd.Flags().String("query", "", "Gmail search query to narrow the import")
	rootCmd.AddCommand(mailCmd)

	askCmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a question grounded on indexed memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			sender, _ := cmd.Flags().GetString("sender")
			backend, _ := cmd.Flags().GetString("backend")
			llm, _ := cmd.Flags().GetString("model")
			return withApp(ctx, func(a *app) error {
				return runAsk(ctx, a, args[0], user, sender, backend, llm, os.Stdout)
			})
		},
	}
	askCmd.Flags().StringP("user", "u", "me", "Display name substituted into the prompt")
	askCmd.Flags().String("sender", "", "Restrict retrieval to chunks involving this sender")
	askCmd.Flags().String("backend", "ollama", "Generation backend (ollama, anthropic)")
	askCmd.Flags().StringP("model", "m", "qwen2.5:7b", "Model name passed to the backend")
	rootCmd.AddCommand(askCmd)

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through indexed chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			senders, _ := cmd.Flags().GetString("senders")
			return withApp(ctx, func(a *app) error {
				return runBrowse(ctx, a, source, page, pageSize, senders, os.Stdout)
			})
		},
	}
	browseCmd.Flags().String("source", "message", "Ingestion source (message, mail)")
	browseCmd.Flags().Int("page", 1, "Page number (1-based)")
	browseCmd.Flags().Int("page-size", 10, "Chunks per page")
	browseCmd.Flags().String("senders", "", "Comma-joined senders; chunks must involve all of them")
	rootCmd.AddCommand(browseCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <chunk-id>...",
		Short: "Delete chunks by id from a source's document store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			return withApp(ctx, func(a *app) error {
				return runDelete(ctx, a, source, args, os.Stdout)
			})
		},
	}
	deleteCmd.Flags().String("source", "message", "Ingestion source (message, mail)")
	rootCmd.AddCommand(deleteCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withApp(ctx context.Context, f func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()
	return f(a)
}
