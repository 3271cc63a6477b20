package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"review-harvester/harvester"
	"review-harvester/internal/types"
	"review-harvester/providers"
	"review-harvester/storage"
	"review-harvester/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Parse command line flags
	var (
		productID  = flag.String("product", "", "Product identifier (required)")
		productURL = flag.String("url", "", "Product page URL (required)")
		source     = flag.String("source", "scroll", "Extraction source: scroll or api")
		apiURL     = flag.String("api-url", "", "Review API endpoint (required for -source=api)")
		outputFlag = flag.String("output", "reviews.ndjson", "Output NDJSON file path")
		target     = flag.Int("target", 100, "Number of reviews to collect")
		batchSize  = flag.Int("batch", 10, "Flush batch size")
		maxRounds  = flag.Int("rounds", 100, "Round safety ceiling")
		stall      = flag.Int("stall", 0, "Stall threshold (0 = per-source default)")
		settleWait = flag.Duration("settle", 1500*time.Millisecond, "Settle wait after scrolling")
		delay      = flag.Duration("delay", 1*time.Second, "Delay between API requests")
		maxRetries = flag.Int("retries", 3, "Maximum retry attempts")
		timeout    = flag.Duration("timeout", 30*time.Second, "Request timeout")
		budget     = flag.Duration("budget", 10*time.Minute, "Wall-clock budget for the whole run")
		pageSize   = flag.Int("page-size", 10, "API page size")
		filter     = flag.String("filter", "all", "Review filter passed to the API")
		sort       = flag.String("sort", "recent", "Review sort order passed to the API")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Validate flags
	if *productID == "" || *productURL == "" {
		log.Fatal("Both -product and -url flags are required")
	}
	if *source != "scroll" && *source != "api" {
		log.Fatalf("Unknown source: %s (want scroll or api)", *source)
	}
	if *source == "api" && *apiURL == "" {
		log.Fatal("-api-url is required with -source=api")
	}

	// Setup logging
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Create configuration
	config := types.DefaultConfig()
	config.TargetCount = *target
	config.BatchSize = *batchSize
	config.MaxRounds = *maxRounds
	config.SettleWait = *settleWait
	config.RequestDelay = *delay
	config.MaxRetries = *maxRetries
	config.Timeout = *timeout
	config.PageSize = *pageSize
	config.Filter = *filter
	config.Sort = *sort

	// Lazy-loaded panels lag several rounds behind the scroll signal, so
	// the scroll source defaults to a more patient stall threshold.
	if *stall > 0 {
		config.StallThreshold = *stall
	} else if *source == "scroll" {
		config.StallThreshold = 5
	} else {
		config.StallThreshold = 2
	}

	// Create context with the wall-clock budget
	ctx, cancel := context.WithTimeout(context.Background(), *budget)
	defer cancel()

	// Open the sink
	sink, err := storage.NewWriter(*outputFlag, logger)
	if err != nil {
		logger.Fatalf("Failed to open output: %v", err)
	}
	defer sink.Close()

	// Create the provider for the chosen source
	var provider providers.Provider
	switch *source {
	case "scroll":
		browser := utils.NewBrowserClient(config, logger)
		if err := browser.Open(ctx, *productURL); err != nil {
			logger.Fatalf("Failed to open product page: %v", err)
		}
		provider = providers.NewScrollProvider(browser, config, logger, browser.Close)
	case "api":
		provider = providers.NewAPIProvider(*apiURL, *productID, config, logger)
	}
	defer provider.Close()

	// Run the harvest
	startTime := time.Now()
	logger.Infof("Starting harvest for product %s (source=%s, target=%d)", *productID, *source, *target)

	controller := harvester.NewController(provider, sink, *productID, *productURL, config, logger)
	summary, runErr := controller.Run(ctx)
	if runErr != nil {
		logger.Warnf("Run ended fatally, partial results kept: %v", runErr)
	}

	logger.Infof("Harvest completed in %v", time.Since(startTime))
	logger.Infof("Reviews saved: %d (reason: %s)", summary.SavedCount, summary.Reason)
	logger.Infof("Results appended to: %s", *outputFlag)

	// Print the termination summary for callers consuming stdout
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal summary: %v", err)
	}
	fmt.Println(string(jsonData))

	if runErr != nil {
		os.Exit(1)
	}
}
