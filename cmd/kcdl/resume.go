package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"kcdl/pkg/classroom"
	"kcdl/pkg/config"
	"kcdl/pkg/index"
	"kcdl/pkg/logger"
	"kcdl/pkg/ui"
)

var (
	// Resume command flags
	resumeOutputDir string
	resumeIndexFile string
	resumeFlatten   bool
	resumeWorkers   int
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Download media from an existing index without crawling",
	Long: `Read a previously written index file and download its records, skipping
the crawl entirely. Useful after an interrupted download or an
'kcdl download --index-only' run.

Signed media links expire, so a stale index may produce failures; re-run
'kcdl download' to refresh it.`,
	Example: `  # Download everything listed in the default index
  kcdl resume --session-value "$KCDL_SESSION_VALUE"

  # Use a specific index and output directory
  kcdl resume --index-file ./index.json --output ./photos`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runResume()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVarP(&resumeOutputDir, "output", "o", "", "output directory for downloads")
	resumeCmd.Flags().StringVar(&resumeIndexFile, "index-file", "", "path of the JSON index file")
	resumeCmd.Flags().BoolVar(&resumeFlatten, "flatten", false, "skip year/month subdirectories")
	resumeCmd.Flags().IntVarP(&resumeWorkers, "workers", "w", 0, "number of concurrent download workers")
}

func runResume() {
	flags := globalFlags()
	if resumeOutputDir != "" {
		flags["output"] = resumeOutputDir
	}
	if resumeIndexFile != "" {
		flags["index-file"] = resumeIndexFile
	}
	if resumeFlatten {
		flags["flatten"] = resumeFlatten
	}
	if resumeWorkers != 0 {
		flags["workers"] = resumeWorkers
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	store := index.NewStore(cfg.Output.IndexFile)
	if !store.Exists() {
		ui.PrintError("Index file not found", store.Path())
		os.Exit(1)
	}

	images, err := store.Read()
	if err != nil {
		log.WithError(err).Error("index read failed")
		ui.PrintError("Failed to read index", err.Error())
		os.Exit(1)
	}
	ui.PrintInfo("Resuming", fmt.Sprintf("%d records from %s", len(images), store.Path()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := classroom.NewClient(cfg, log)

	failed := downloadAll(ctx, cfg, log, client, images)
	if failed > 0 {
		os.Exit(1)
	}
}
