package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Pew-X/sensegate/internal/agent"
	"github.com/Pew-X/sensegate/internal/harvest"
	"github.com/Pew-X/sensegate/internal/knowledge/babelnet"
	"github.com/Pew-X/sensegate/internal/knowledge/snapshot"
	"github.com/Pew-X/sensegate/internal/store"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sensegate-agent",
		Short: "sensegate agent - BabelNet gloss lookups over gRPC",
		Long: `sensegate-agent serves glosses, usage examples and gloss-related
WordNet sense keys from BabelNet, a SQLite snapshot or a JSONL dump.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (defaults and SENSEGATE_* env vars apply without one)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(harvestCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("sensegate-agent failed")
		stop()
		os.Exit(1)
	}
}

// serveCmd creates the serve subcommand
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lookup service (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

// importCmd creates the import subcommand
func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.jsonl>",
		Short: "Load a JSONL synset dump into the SQLite snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := snapshot.Open(config.SnapshotPath)
			if err != nil {
				return err
			}
			defer db.Close()

			imported, err := db.ImportDump(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			total, err := db.Count(cmd.Context())
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"dump":     args[0],
				"snapshot": config.SnapshotPath,
				"imported": imported,
				"total":    total,
			}).Info("Import finished")
			return nil
		},
	}
}

// harvestCmd creates the harvest subcommand
func harvestCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "harvest <id>...",
		Short: "Fetch synsets and their gloss neighbours from BabelNet into a JSONL dump",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if output == "" {
				output = config.DumpPath
			}

			source, err := babelnet.NewClient(config.BabelNetConfig())
			if err != nil {
				return err
			}
			dump, err := store.OpenDump(output)
			if err != nil {
				return err
			}
			defer dump.Close()

			stats, err := harvest.New(source, dump).Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d synset(s) to %s (%d seed(s), %d target(s), %d missing)\n",
				stats.Written, output, stats.Seeds, stats.Targets, stats.Missing)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Dump file to append to (default: dump_path from config)")

	return cmd
}

func serve(ctx context.Context) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := agent.NewAgent(config)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig() (agent.Config, error) {
	config, err := agent.LoadConfig(configPath)
	if err != nil {
		return agent.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := agent.ConfigureLogging(config); err != nil {
		return agent.Config{}, err
	}
	return config, nil
}
