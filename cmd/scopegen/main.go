// Command scopegen merges dependency-injection contributions declared
// across Go packages into generated per-scope container types.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/syssam/scopegen/compiler/gen"
)

var version = "devel"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dir        string
	patterns   []string
	buildFlags []string
	workers    int
	header     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "scopegen",
		Short:         "Merge scoped DI contributions into generated containers",
		Long: "scopegen scans Go packages for //scopegen: directives and the markers\n" +
			"published by compiled dependencies, resolves replace/exclude conflicts\n" +
			"per scope, and generates one merged container per merge point.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a scopegen.yaml config file")
	root.PersistentFlags().StringVar(&flags.dir, "dir", ".", "module directory to load packages from")
	root.PersistentFlags().StringSliceVarP(&flags.patterns, "patterns", "p", nil, "package patterns to scan (default ./...)")
	root.PersistentFlags().StringSliceVar(&flags.buildFlags, "build-flags", nil, "extra build flags for the package loader")
	root.PersistentFlags().IntVar(&flags.workers, "workers", 0, "parallel emission workers (default GOMAXPROCS)")
	root.PersistentFlags().StringVar(&flags.header, "header", "", "override the generated file header comment")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGenerateCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Scan, resolve and write merged containers once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := buildConfig(flags)
			if err != nil {
				logError(logger, err)
				return err
			}
			if err := gen.Generate(cmd.Context(), cfg); err != nil {
				logError(logger, err)
				return err
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scopegen version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scopegen %s\n", version)
		},
	}
}

// buildConfig assembles the generation config from the optional config file
// and the command-line flags. Flags win over file settings.
func buildConfig(flags *rootFlags) (*gen.Config, *log.Logger, error) {
	cfg := &gen.Config{}
	if flags.configPath != "" {
		loaded, err := gen.LoadConfig(flags.configPath)
		if err != nil {
			return nil, newLogger(flags), err
		}
		cfg = loaded
	}

	logger := newLogger(flags)
	var opts []gen.Option
	if flags.dir != "" {
		opts = append(opts, gen.WithDir(flags.dir))
	}
	if len(flags.patterns) > 0 {
		opts = append(opts, gen.WithPatterns(flags.patterns...))
	}
	if len(flags.buildFlags) > 0 {
		opts = append(opts, gen.WithBuildFlags(flags.buildFlags...))
	}
	if flags.workers > 0 {
		opts = append(opts, gen.WithWorkers(flags.workers))
	}
	if flags.header != "" {
		opts = append(opts, gen.WithHeader(flags.header))
	}
	opts = append(opts, gen.WithLogger(logger))
	if err := cfg.Apply(opts...); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func newLogger(flags *rootFlags) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "scopegen"})
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func logError(logger *log.Logger, err error) {
	if logger == nil || err == nil {
		return
	}
	logger.Error(err.Error())
}
