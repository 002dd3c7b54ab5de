// Package main implements the sweeping command line: extract simulator
// results into a flat table, tidy and query it, search it for parameter
// fits and publish the outputs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wormsim/sweeping/internal/app"
	"github.com/wormsim/sweeping/internal/config"
	"github.com/wormsim/sweeping/internal/manifest"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sweeping",
		Short: "Consolidate worm simulation parameter sweeps",
		Long: `sweeping walks a simulator results tree, summarizes every exit time
file into one row of a fixed-width table, and searches that table for
parameter sets that fit the published reference data.

Environment variables prefixed with SWEEPING_ override the configuration
file, and a .env file in the working directory is loaded first.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML, JSON or INI)")
	rootCmd.PersistentFlags().String("data-dir", "", "Base directory for all data files")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Dotenv files to load (default: .env)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newExtractCmd(),
		newTidyCmd(),
		newQueryCmd(),
		newFitCmd(),
		newPublishCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// loadApp builds the App from the config file, the environment and the
// command line flags, in increasing priority.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	configFile, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")

	cfg, err := config.Load(configFile, config.WithEnvFiles(envFiles...), config.WithDataDir(dataDir))
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	return a.WithOutput(cmd.OutOrStdout()), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sweeping version %s (commit: %s)\n", version, commit)
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Build the main and ignored databases from the results directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			report, err := a.Extract(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("extract: %d records kept in %s, %d ignored (run %s)",
				report.Kept, report.Database, report.Ignored, report.RunID)
			return nil
		},
	}
}

func newTidyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tidy [DATABASE]",
		Short: "Re-sanitize an existing database into the main and ignored databases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			var src string
			if len(args) == 1 {
				src = args[0]
			}
			report, err := a.Tidy(cmd.Context(), src)
			if err != nil {
				return err
			}
			log.Printf("tidy: %d records kept, %d ignored (run %s)", report.Kept, report.Ignored, report.RunID)
			return nil
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query FIELD=VALUE...",
		Short: "Print the database rows matching every FIELD=VALUE pair",
		Example: `  sweeping query FR=50 MULTI=1
  sweeping query --database ignored_database.txt N=150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			db, _ := cmd.Flags().GetString("database")
			_, err = a.Query(cmd.Context(), db, args)
			return err
		},
	}
	cmd.Flags().String("database", "", "Database to query (default: the configured main database)")
	return cmd
}

func newFitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fit",
		Short: "Search the database for parameter sets fitting the reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			report, err := a.Fit(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range report.Candidates {
				fmt.Fprintln(cmd.OutOrStdout(), c.File)
			}
			return nil
		},
	}
}

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload databases, the error log and fit outputs to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			prune, _ := cmd.Flags().GetBool("prune")
			report, err := a.Publish(cmd.Context(), app.PublishOptions{Prune: prune})
			if err != nil {
				return err
			}
			for _, object := range report.Objects {
				fmt.Fprintln(cmd.OutOrStdout(), object)
			}
			for _, object := range report.Pruned {
				fmt.Fprintln(cmd.OutOrStdout(), "pruned", object)
			}
			return nil
		},
	}
	cmd.Flags().Bool("prune", false, "Delete objects under the prefix that this run did not upload")
	return cmd
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [NAME...]",
		Short: "Download published artifacts back into the data directory",
		Example: `  sweeping fetch
  sweeping fetch database.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			report, err := a.Fetch(cmd.Context(), args...)
			if err != nil {
				return err
			}
			for _, file := range report.Files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "List recorded runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				run, err := a.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.PrintRuns(cmd.Context(), []*manifest.Run{run})
			}
			kind, _ := cmd.Flags().GetString("kind")
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := a.Runs(cmd.Context(), manifest.RunKind(kind), limit)
			if err != nil {
				return err
			}
			return a.PrintRuns(cmd.Context(), runs)
		},
	}
	cmd.Flags().String("kind", "", "Only list runs of this kind (extract, tidy, fit, publish, fetch)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}
