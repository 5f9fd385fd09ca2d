package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SignalTopics/internal/collect"
	"github.com/TobiSchelling/SignalTopics/internal/config"
	"github.com/TobiSchelling/SignalTopics/internal/database"
	"github.com/TobiSchelling/SignalTopics/internal/logging"
	"github.com/TobiSchelling/SignalTopics/internal/pipeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "signaltopics",
	Short:   "Topic discovery for company signals",
	Long:    "SignalTopics clusters collected Reddit and news signals per company into topics and writes a one-sentence interpretation of each.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		if err := logging.Init("INFO", verbose); err != nil {
			return err
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := logging.Init(cfg.Logging.Level, verbose); err != nil {
			return err
		}
		if path != "" {
			logging.Debug("Config loaded", "path", path)
		}
		return nil
	},
	RunE: runPipeline,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("signaltopics", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/signaltopics/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure entities, models, and the data directory.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs from the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.History.Path == "" {
			fmt.Println("Run history is disabled. Set history.path in the config to enable it.")
			return nil
		}

		db, err := database.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		schema, err := db.SchemaVersion()
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Printf("History: %s (schema v%d)\n\n", db.Path(), schema)
		fmt.Println("Runs:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		fmt.Printf("  Written: %d\n", stats.Written)
		fmt.Printf("  Skipped: %d\n", stats.Skipped)
		fmt.Printf("  Failed: %d\n", stats.Failed)
		fmt.Printf("  Entities: %d\n", stats.Entities)
		fmt.Printf("  Topics reported: %d\n", stats.TotalTopics)

		runs, err := db.GetRecentRuns(statusLimit)
		if err != nil {
			return fmt.Errorf("getting recent runs: %w", err)
		}
		if len(runs) == 0 {
			return nil
		}

		fmt.Println("\nRecent:")
		for _, r := range runs {
			fmt.Printf("  [%d] %s  %-18s %-8s %d texts, %d topics, %d outliers\n",
				r.ID, r.StartedAt, r.Entity, r.Status, r.CorpusSize, r.TopicCount, r.OutlierCount)
			if r.Error != nil {
				fmt.Printf("        %s\n", *r.Error)
			}
		}
		return nil
	},
}

var statusLimit int

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of recent runs to show")
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect [entity...]",
	Short: "Collect Reddit posts and news articles for configured entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		entities := cfg.Entities
		if len(args) > 0 {
			entities = args
		}

		ctx, stop := signalContext()
		defer stop()

		fmt.Println("Collecting signals...")
		collector := collect.NewCollector(cfg)
		results := collector.CollectAll(ctx, entities)

		fmt.Println("\nCollection complete:")
		failed := 0
		for _, r := range results {
			fmt.Printf("  %s: %d reddit posts, %d news articles\n", r.Entity, r.RedditPosts, r.NewsArticles)
			for _, err := range r.Errors {
				fmt.Printf("    Error: %v\n", err)
			}
			if len(r.Errors) > 0 && len(r.Files) == 0 {
				failed++
			}
		}
		if failed == len(results) && failed > 0 {
			return fmt.Errorf("collection failed for every entity")
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: load -> embed -> cluster -> rank -> interpret -> write",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without invoking any model")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if dryRun {
		p, err := pipeline.New(cfg, pipeline.Deps{})
		if err != nil {
			return err
		}
		result, err := p.DryRun()
		if err != nil {
			return err
		}
		for _, e := range result.Entities {
			if e.Status == pipeline.StatusSkipped {
				fmt.Printf("  %s: no signals, would skip\n", e.Entity)
				continue
			}
			fmt.Printf("  %s: %d texts -> %s\n", e.Entity, e.CorpusSize, e.ReportPath)
			for _, w := range e.Warnings {
				fmt.Printf("    Warning: %v\n", w)
			}
		}
		return nil
	}

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signalContext()
	defer stop()

	result, err := p.Run(ctx)
	if errors.Is(err, pipeline.ErrDataDirMissing) {
		return fmt.Errorf("%w (run 'signaltopics collect' first)", err)
	}
	if result != nil {
		printResult(result)
	}
	return err
}

func printResult(result *pipeline.Result) {
	for _, e := range result.Entities {
		switch e.Status {
		case pipeline.StatusWritten:
			fmt.Printf("  %s: %d topics, %d outliers -> %s\n", e.Entity, e.TopicCount, e.OutlierCount, e.ReportPath)
		case pipeline.StatusSkipped:
			fmt.Printf("  %s: skipped (no signals)\n", e.Entity)
		case pipeline.StatusFailed:
			fmt.Printf("  %s: failed: %v\n", e.Entity, e.Err)
		}
	}
	fmt.Printf("\n%s written, %d skipped, %d failed\n",
		plural(result.Count(pipeline.StatusWritten), "report"),
		result.Count(pipeline.StatusSkipped),
		result.Count(pipeline.StatusFailed))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
