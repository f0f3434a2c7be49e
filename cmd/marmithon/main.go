package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nchevrel/marmithon/internal/analyze"
	"github.com/nchevrel/marmithon/internal/config"
	"github.com/nchevrel/marmithon/internal/logging"
	"github.com/nchevrel/marmithon/internal/memo"
	"github.com/nchevrel/marmithon/internal/pipeline"
	"github.com/nchevrel/marmithon/internal/report"
	"github.com/nchevrel/marmithon/internal/server"
	"github.com/nchevrel/marmithon/internal/store"
	"github.com/nchevrel/marmithon/internal/textproc"
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
	Use:     "marmithon",
	Short:   "Recipe dataset analysis",
	Long:    "Marmithon ingests raw recipe and review CSVs, builds a cleaned analysis table, and serves term and ingredient analytics over it.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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
		if verbose {
			cfg.Logging.Level = "debug"
		}
		return logging.Setup(cfg.Logging)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marmithon", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/marmithon/",
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
		fmt.Println("Edit it to point at the raw CSV sources.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show analysis table status",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.AnalysisTablePath()
		db, err := store.Open(path)
		if err != nil {
			fmt.Printf("No analysis table at %s\n", path)
			fmt.Println("Run 'marmithon run' to build it.")
			return nil
		}
		defer db.Close()

		ctx := cmd.Context()
		rows, err := db.CountRows(ctx)
		if err != nil {
			return err
		}
		recipes, err := db.CountRecipes(ctx)
		if err != nil {
			return err
		}
		categories, err := db.CategoryCounts(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Analysis table: %s\n\n", path)
		fmt.Printf("  Interactions: %d\n", rows)
		fmt.Printf("  Recipes: %d\n", recipes)
		fmt.Println("\nTime categories:")
		for cat, n := range categories {
			fmt.Printf("  %s: %d\n", cat, n)
		}
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL: read raw CSVs, clean, merge, and persist the analysis table",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := pipeline.New(cfg).Run(cmd.Context())

		for i, step := range result.Steps {
			fmt.Printf("Step %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if err := result.Err(); err != nil {
			return err
		}

		if total := result.Rejects.Total(); total > 0 {
			fmt.Printf("\nRejected %d rows:\n", total)
			for _, reason := range result.Rejects.Reasons() {
				fmt.Printf("  %s: %d\n", reason, result.Rejects[reason])
			}
		}
		fmt.Printf("\nDone: %d rows. Run 'marmithon serve' to explore the results.\n", result.Rows)
		return nil
	},
}

// --- analyze command ---

var (
	analyzeScope string
	analyzeN     int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print term tables and their comparison for a scope",
	Long:  "Computes the frequency and TF-IDF term tables for one scope (best, worst or most) and their set comparison. Results are memoized and persisted across invocations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := analyze.ParseScope(analyzeScope)
		if err != nil {
			return err
		}

		db, analyzer, err := openAnalyzer()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		freq, err := analyzer.Frequency(ctx, scope, analyzeN)
		if err != nil {
			return err
		}
		tfidf, err := analyzer.TFIDF(ctx, scope, analyzeN)
		if err != nil {
			return err
		}
		cmpResult, err := analyzer.Compare(ctx, scope, 0)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "rank\tfrequency\ttf-idf\n")
		for i := range freq {
			tf := ""
			if i < len(tfidf) {
				tf = fmt.Sprintf("%s (%.1f)", tfidf[i].Term, tfidf[i].Weight)
			}
			fmt.Fprintf(w, "%d\t%s (%.0f)\t%s\n", i+1, freq[i].Term, freq[i].Weight, tf)
		}
		w.Flush()

		fmt.Printf("\nCommon terms: %v\n", cmpResult.Common)
		fmt.Printf("Frequency only: %v\n", cmpResult.OnlyFrequency)
		fmt.Printf("TF-IDF only: %v\n", cmpResult.OnlyTFIDF)

		return saveAnalyzerState(analyzer)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeScope, "scope", "s", "best", "Scope to analyze: best, worst or most")
	analyzeCmd.Flags().IntVarP(&analyzeN, "top", "n", 0, "Number of terms (0 uses the configured default)")
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the full markdown analysis report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, analyzer, err := openAnalyzer()
		if err != nil {
			return err
		}
		defer db.Close()

		md, err := report.NewBuilder(db, analyzer, cfg.Analysis.TopN).Build(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(md)
		return saveAnalyzerState(analyzer)
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, analyzer, err := openAnalyzer()
		if err != nil {
			log.Warn().Err(err).Msg("starting without analysis data")
			srv := server.New(nil, nil, nil)
			return srv.Serve(port())
		}
		defer db.Close()

		builder := report.NewBuilder(db, analyzer, cfg.Analysis.TopN)
		fmt.Printf("Starting server at http://localhost:%d\n", port())
		fmt.Println("Press Ctrl+C to stop")
		return server.New(db, analyzer, builder).Serve(port())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (0 uses the configured default)")
}

func port() int {
	if servePort > 0 {
		return servePort
	}
	return cfg.Server.Port
}

// openAnalyzer opens the analysis table and builds an analyzer over it,
// restoring any previously saved memoization state.
func openAnalyzer() (*store.DB, *analyze.Analyzer, error) {
	db, err := store.Open(cfg.AnalysisTablePath())
	if err != nil {
		return nil, nil, fmt.Errorf("no analysis table; run 'marmithon run' first: %w", err)
	}

	cache, err := memo.New(cfg.Cache.Capacity)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	statePath := cfg.CacheStatePath()
	if _, statErr := os.Stat(statePath); statErr == nil {
		if err := cache.Load(statePath); err != nil {
			if errors.Is(err, memo.ErrIncompatibleState) {
				log.Warn().Str("path", statePath).Msg("ignoring incompatible analyzer state")
			} else {
				log.Warn().Err(err).Msg("could not restore analyzer state")
			}
		} else {
			log.Debug().Int("entries", cache.Len()).Msg("restored analyzer state")
		}
	}

	analyzer := analyze.NewAnalyzer(db, textproc.New(cfg.Text), cache, cfg.Analysis)
	return db, analyzer, nil
}

func saveAnalyzerState(analyzer *analyze.Analyzer) error {
	if err := analyzer.Cache().Save(cfg.CacheStatePath()); err != nil {
		return fmt.Errorf("saving analyzer state: %w", err)
	}
	return nil
}
