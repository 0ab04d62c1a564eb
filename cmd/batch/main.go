package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pcsite/backend/internal/batch"
	"github.com/pcsite/backend/internal/logging"
)

var (
	serverURL    string
	categoryList string
	kind         string
	pause        time.Duration
	wait         bool
	pollInterval time.Duration
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:           "batch",
	Short:         "Trigger catalog pipeline passes on a running pcsite server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass per category, sequentially",
	Long: `Posts a sync, benchmarks or enrich task for each category in order, pausing
between categories. A failed category is logged and the run moves on.
The summary is printed as JSON when the run ends.`,
	RunE: runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	runCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")
	runCmd.Flags().StringVar(&categoryList, "categories", "", "comma-separated categories (required)")
	runCmd.Flags().StringVar(&kind, "kind", "sync", "task kind: sync, benchmarks or enrich")
	runCmd.Flags().DurationVar(&pause, "pause", 5*time.Second, "pause between categories")
	runCmd.Flags().BoolVar(&wait, "wait", true, "wait for each task to finish before the next category")
	runCmd.Flags().DurationVar(&pollInterval, "poll", 2*time.Second, "task status poll interval")
	_ = runCmd.MarkFlagRequired("categories")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(logging.Config{Level: logLevel, Format: "console", Output: os.Stderr, Service: "pcsite-batch"})
	ctx = logging.WithLogger(ctx, &logger)
	ctx = logging.WithRequestID(ctx, "batch-"+uuid.NewString())

	categories, err := batch.ParseCategories(categoryList)
	if err != nil {
		return err
	}

	driver, err := batch.NewDriver(batch.Config{
		Server:       serverURL,
		Kind:         kind,
		Categories:   categories,
		Pause:        pause,
		Wait:         wait,
		PollInterval: pollInterval,
	})
	if err != nil {
		return err
	}

	summary, runErr := driver.Run(ctx)

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	if err := out.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted: %w", runErr)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d categories failed", summary.Failed, len(summary.Outcomes))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
