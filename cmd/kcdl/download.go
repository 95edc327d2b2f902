package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"kcdl/internal/downloader"
	"kcdl/pkg/classroom"
	"kcdl/pkg/config"
	"kcdl/pkg/crawler"
	"kcdl/pkg/index"
	"kcdl/pkg/logger"
	"kcdl/pkg/models"
	"kcdl/pkg/ratelimit"
	"kcdl/pkg/storage"
	"kcdl/pkg/ui"
)

var (
	// Download command flags
	startPage  int
	endPage    int
	outputDir  string
	indexFile  string
	indexOnly  bool
	flatten    bool
	workers    int
	rateLimit  int
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <account-id>",
	Short: "Crawl the activity feed and download all attached media",
	Long: `Crawl the classroom activity feed for an account, write an index of
every discovered media record, then download the files concurrently.

Downloaded files are placed under year/month subdirectories of the output
directory (use --flatten for a single flat directory) and their modification
times are set to the activity dates.`,
	Example: `  # Crawl everything and download with default settings
  kcdl download 1234567 --session-value "$KCDL_SESSION_VALUE"

  # Only build the index, download later with 'kcdl resume'
  kcdl download 1234567 --index-only

  # Crawl pages 2 through 5 into a flat directory
  kcdl download 1234567 --start-page 2 --end-page 5 --flatten`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runDownload(args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVar(&startPage, "start-page", 1, "feed page to start crawling from")
	downloadCmd.Flags().IntVar(&endPage, "end-page", 0, "feed page to stop at (0 crawls until the feed is exhausted)")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	downloadCmd.Flags().StringVar(&indexFile, "index-file", "", "path of the JSON index file")
	downloadCmd.Flags().BoolVar(&indexOnly, "index-only", false, "write the index without downloading any media")
	downloadCmd.Flags().BoolVar(&flatten, "flatten", false, "skip year/month subdirectories")
	downloadCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent download workers")
	downloadCmd.Flags().IntVar(&rateLimit, "requests-per-minute", 0, "throttle feed requests (0 disables throttling)")
}

func runDownload(args []string) {
	accountID := strings.TrimSpace(args[0])

	flags := globalFlags()
	if startPage != 1 {
		flags["start-page"] = startPage
	}
	if endPage != 0 {
		flags["end-page"] = endPage
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if indexFile != "" {
		flags["index-file"] = indexFile
	}
	if flatten {
		flags["flatten"] = flatten
	}
	if workers != 0 {
		flags["workers"] = workers
	}
	if rateLimit != 0 {
		flags["requests-per-minute"] = rateLimit
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

	if cfg.Classroom.SessionValue == "" {
		ui.PrintError("Missing session cookie value",
			"provide via --session-value flag or KCDL_SESSION_VALUE env var")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := classroom.NewClient(cfg, log)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	ui.PrintInfo("Account", accountID)
	log.WithFields(map[string]interface{}{
		"account_id": accountID,
		"start_page": cfg.Crawl.StartPage,
		"end_page":   cfg.Crawl.EndPage,
	}).Info("starting crawl")

	images, err := crawler.New(client, limiter, log).Crawl(ctx, accountID, cfg.Crawl.StartPage, cfg.Crawl.EndPage)
	if err != nil {
		log.WithError(err).Error("crawl failed")
		ui.PrintError("Crawl failed", err.Error())
		os.Exit(1)
	}
	if len(images) == 0 {
		ui.PrintError("No activities found", "check the account id and session cookie")
		os.Exit(1)
	}

	store := index.NewStore(cfg.Output.IndexFile)
	if err := store.Write(images); err != nil {
		log.WithError(err).Error("index write failed")
		ui.PrintError("Failed to write index", err.Error())
		os.Exit(1)
	}
	ui.PrintInfo("Indexed", store.Path())

	if indexOnly {
		ui.PrintSuccess("Index written, skipping downloads")
		return
	}

	failed := downloadAll(ctx, cfg, log, client, images)
	if failed > 0 {
		os.Exit(1)
	}
}

// downloadAll runs the concurrent download batch and returns the number of
// records that could not be downloaded.
func downloadAll(ctx context.Context, cfg *config.Config, log logger.Logger, client *classroom.Client, images []models.Image) int {
	manager, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Download.Flatten)
	if err != nil {
		ui.PrintError("Failed to create output directory", err.Error())
		os.Exit(1)
	}

	pool := downloader.NewWorkerPool(ctx, cfg.Download.Workers, client, manager, log)
	pool.Start()

	go func() {
		for _, img := range images {
			if err := pool.Submit(downloader.DownloadJob{Image: img}); err != nil {
				break
			}
		}
		pool.Stop()
	}()

	tracker := ui.NewDownloadTracker(len(images))
	for result := range pool.Results() {
		if result.Success {
			tracker.RecordSuccess()
		} else {
			tracker.RecordFailure()
			log.WithError(result.Err).WithFields(map[string]interface{}{
				"name":   result.Job.Image.Name,
				"status": result.StatusCode,
			}).Error("download failed")
		}
		tracker.PrintProgress()
	}
	tracker.PrintSummary()

	_, failed := tracker.Counts()
	return failed
}
