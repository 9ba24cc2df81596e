package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/internal/config"
	"github.com/anttttti/DuneBlend/internal/platform"
	"github.com/anttttti/DuneBlend/pkg/core"
)

var (
	verbose    bool
	configPath string
	adapter    string
	blendsDir  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "duneblend",
	Short: "Build, store and serve Dune: Imperium blends",
	Long: `DuneBlend keeps Dune: Imperium blends as Markdown files.
It parses and formats blends, stores them in a directory, a SQLite database
or on a remote server, and serves the blend builder API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded

		level, _ := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// loadConfig reads duneblend.yaml from --config, or from the project root
// found above the working directory. Relative paths in the file are
// resolved against the file's directory.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	explicit := cmd.Flags().Changed("config")
	if !explicit {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		root := wd
		if found, err := platform.FindRoot(wd); err == nil {
			root = found
		}
		path = filepath.Join(root, config.DefaultFile)
	}

	c, err := config.Load(path, explicit)
	if err != nil {
		return config.Config{}, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&c.BlendsDir, &c.Database, &c.StaticDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	if adapter != "" {
		c.Adapter = adapter
	}
	if blendsDir != "" {
		c.BlendsDir = blendsDir
	}
	return c, c.Validate()
}

// openService opens the configured store.
func openService(extra ...platform.Option) (*core.Service, error) {
	opts := append(platform.FromConfig(cfg), platform.WithLogger(slog.Default()))
	opts = append(opts, extra...)
	svc, err := platform.New(platform.URI(cfg), opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Adapter, err)
	}
	return svc, nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Store adapter: fs, sqlite or remote")
	rootCmd.PersistentFlags().StringVarP(&blendsDir, "dir", "d", "", "Blends directory (fs adapter)")
}
