package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"techdoc/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "techdoc",
		Short:         "Incremental code indexing and documentation generation",
		Long:          "techdoc indexes a codebase incrementally, keeps a searchable vector index of its chunks, and generates documentation grounded in the indexed code.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default techdoc.yaml when present)")

	root.AddCommand(
		indexCmd(),
		searchCmd(),
		generateCmd(),
		statusCmd(),
		feedbackCmd(),
		mcpCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("techdoc %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		},
	}
}
