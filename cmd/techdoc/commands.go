package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"techdoc/internal/embedder"
	"techdoc/internal/indexer"
	"techdoc/internal/mcp"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
)

func indexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Run an incremental indexing pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.ix.Run(cmd.Context(), indexer.Options{ForceFull: force})
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d files, reindexed %d, deleted %d, %d chunks indexed (%s)\n",
				sum.FilesScanned, sum.FilesReindexed, sum.FilesDeleted, sum.ChunksIndexed,
				sum.Duration.Round(time.Millisecond))
			for _, e := range sum.Errors {
				fmt.Fprintln(os.Stderr, "warning:", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-chunk and re-embed every file regardless of content hashes")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		limit int
		mode  string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			results, err := runSearch(cmd.Context(), a, query, limit, mode)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for i, r := range results {
				name := r.Chunk.Name
				if name == "" {
					name = "(module)"
				}
				fmt.Printf("%2d. %s %s  %s:%d-%d  score %.3f\n",
					i+1, r.Chunk.Kind, name, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Score)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().StringVar(&mode, "mode", "auto", "search strategy: auto, semantic, or keyword")
	return cmd
}

func runSearch(ctx context.Context, a *app, query string, limit int, mode string) ([]vecindex.Result, error) {
	if mode == "keyword" {
		return a.index.KeywordSearch(query, limit)
	}

	emb, err := a.embed.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: query,
		Task: embedder.TaskQuery,
	})
	if err == nil {
		results, serr := a.index.Search(emb.Vector, limit)
		if serr == nil {
			return results, nil
		}
		err = serr
	}

	if mode == "semantic" {
		return nil, err
	}
	a.log.Warn().Err(err).Msg("semantic search unavailable, using keyword search")
	return a.index.KeywordSearch(query, limit)
}

func generateCmd() *cobra.Command {
	var (
		update bool
		output string
	)

	cmd := &cobra.Command{
		Use:       "generate <doc-type>",
		Short:     "Generate or update a documentation artifact",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"readme", "api", "onboarding", "changelog", "architecture"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			gen, err := a.docGenerator()
			if err != nil {
				return err
			}

			docType := args[0]
			if update {
				d, err := gen.Update(cmd.Context(), docType, output)
				if err != nil {
					return err
				}
				fmt.Printf("Updated %s -> %s (%d bytes)\n", d.DocType, d.FilePath, len(d.Content))
				return nil
			}

			d, err := gen.Generate(cmd.Context(), docType, output)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %s -> %s (%d bytes)\n", d.DocType, d.FilePath, len(d.Content))
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "update the latest existing document in light of recent changes")
	cmd.Flags().StringVar(&output, "output", "", "output file path (defaults to docs/<TYPE>.md)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.ListFileRecords(cmd.Context())
			if err != nil {
				return err
			}
			stats := a.index.GetStats()

			fmt.Printf("Project: %s\n", a.cfg.Root)
			fmt.Printf("Files tracked: %d\n", len(records))
			fmt.Printf("Chunks indexed: %d (%d embedded)\n", stats.TotalChunks, stats.Embedded)
			fmt.Printf("Embedding: %s/%s (%d dims)\n", a.embed.Provider(), a.embed.Model(), a.embed.Dimension())

			if len(stats.Languages) > 0 {
				fmt.Println("Languages:")
				for lang, n := range stats.Languages {
					fmt.Printf("  %-12s %d\n", lang, n)
				}
			}

			changes, err := a.store.RecentChanges(cmd.Context(), 10)
			if err != nil {
				return err
			}
			if len(changes) > 0 {
				fmt.Println("Recent changes:")
				for _, c := range changes {
					fmt.Printf("  %-9s %s\n", c.Kind, c.Path)
				}
			}
			return nil
		},
	}
}

func feedbackCmd() *cobra.Command {
	var (
		rating  int
		comment string
	)

	cmd := &cobra.Command{
		Use:   "feedback <doc-type>",
		Short: "Record feedback about a generated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rating < 1 || rating > 5 {
				return fmt.Errorf("rating must be between 1 and 5")
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fb := &storage.Feedback{DocType: args[0], Rating: rating, Comment: comment}
			if err := a.store.AddFeedback(cmd.Context(), fb); err != nil {
				return err
			}
			fmt.Printf("Feedback recorded for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "quality rating from 1 (poor) to 5 (excellent)")
	cmd.Flags().StringVar(&comment, "comment", "", "what should change in future generations")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Documentation tools stay available when an LLM is
			// configured; the server degrades gracefully otherwise.
			gen, err := a.docGenerator()
			if err != nil {
				a.log.Warn().Err(err).Msg("generate_docs tool disabled")
				gen = nil
			}

			srv := mcp.NewServer(mcp.Deps{
				Store:   a.store,
				Index:   a.index,
				Embed:   a.embed,
				Indexer: a.ix,
				Docs:    gen,
				Log:     a.log,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				a.log.Info().Str("signal", sig.String()).Msg("shutting down")
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}
