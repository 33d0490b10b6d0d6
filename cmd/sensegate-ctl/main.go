package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pew-X/sensegate/internal/core"
	client "github.com/Pew-X/sensegate/pkg/sensegate-client"
)

var (
	agentAddr string
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sensegate-ctl",
		Short: "sensegate control - CLI for querying sensegate agents",
		Long: `sensegate-ctl is a command line interface for looking up glosses,
examples and gloss-related sense keys through a running sensegate agent.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&agentAddr, "agent", "localhost:25333", "Address of sensegate agent")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// subcommands
	rootCmd.AddCommand(glossCmd())
	rootCmd.AddCommand(exampleCmd())
	rootCmd.AddCommand(relatedCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(wnidCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// glossCmd creates the gloss subcommand
func glossCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gloss <id>",
		Short: "Print the English gloss of a synset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				gloss, err := c.Gloss(ctx, args[0])
				if err != nil {
					return fmt.Errorf("gloss lookup failed: %w", err)
				}
				fmt.Println(gloss)
				return nil
			})
		},
	}
}

// exampleCmd creates the example subcommand
func exampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example <id>",
		Short: "Print the English usage examples of a synset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				example, err := c.Example(ctx, args[0])
				if err != nil {
					return fmt.Errorf("example lookup failed: %w", err)
				}
				fmt.Println(example)
				return nil
			})
		},
	}
}

// relatedCmd creates the related subcommand
func relatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related <id>",
		Short: "List the sense keys linked from a synset's gloss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				keys, err := c.Related(ctx, args[0])
				if err != nil {
					return fmt.Errorf("related lookup failed: %w", err)
				}
				for _, key := range keys {
					fmt.Println(key)
				}
				return nil
			})
		},
	}
}

// describeCmd creates the describe subcommand
func describeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe <id>",
		Short: "Show gloss, example and related keys of a synset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				d, err := c.Describe(ctx, args[0])
				if err != nil {
					return fmt.Errorf("describe failed: %w", err)
				}
				if asJSON {
					return printJSON(d)
				}

				if !d.Found {
					fmt.Printf("%s: not found\n", d.ID)
					return nil
				}
				fmt.Printf("%s\n", d.ID)
				fmt.Printf("  Gloss: %s\n", d.Gloss)
				fmt.Printf("  Example: %s\n", d.Example)
				fmt.Printf("  Related (%d):\n", len(d.Related))
				for _, key := range d.Related {
					fmt.Printf("    - %s\n", key)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

// healthCmd creates the health subcommand
func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check agent health",
		Long:  "Query the gRPC health service of the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				serving, err := c.Health(ctx)
				if err != nil {
					return fmt.Errorf("health check failed: %w", err)
				}
				fmt.Printf("Agent %s: %s\n", agentAddr, serving)
				return nil
			})
		},
	}
}

// metricsCmd creates the metrics subcommand
func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show agent metrics",
		Long:  "Display lookup counters, backend state and resource usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				metrics, err := c.Metrics(ctx)
				if err != nil {
					return fmt.Errorf("metrics request failed: %w", err)
				}
				printMetrics(metrics)
				return nil
			})
		},
	}
}

// wnidCmd creates the wnid subcommand
func wnidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wnid <offset> <pos>",
		Short: "Format a WordNet offset and part of speech as a wn: id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[0], err)
			}
			id, err := core.WordNetID(offset, args[1])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

// withClient dials the agent and runs fn under the request timeout.
func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	c, err := client.Dial(agentAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return fn(ctx, c)
}

func printMetrics(metrics map[string]any) {
	fmt.Printf("Agent Metrics:\n")
	fmt.Printf("  Version: %v\n", metrics["version"])
	fmt.Printf("  Status: %v (%v)\n", metrics["status"], metrics["message"])
	fmt.Printf("  Uptime: %v seconds\n", metrics["uptime_seconds"])
	fmt.Printf("\nKnowledge Base:\n")
	fmt.Printf("  Backend: %v\n", metrics["backend"])
	fmt.Printf("  Opened: %v\n", metrics["backend_opened"])
	fmt.Printf("  Reachable: %v\n", metrics["backend_up"])
	fmt.Printf("\nLookups:\n")
	fmt.Printf("  Total: %v (errors: %v)\n", metrics["total_lookups"], metrics["total_errors"])
	fmt.Printf("  Rate: %v lookups/min\n", metrics["lookup_rate_per_min"])
	if ops, ok := metrics["operations"].(map[string]any); ok && len(ops) > 0 {
		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("    %s: %v\n", name, ops[name])
		}
	}
	fmt.Printf("\nSystem Resources:\n")
	if mem, ok := metrics["memory_usage_bytes"].(float64); ok {
		fmt.Printf("  Memory usage: %.2f MB\n", mem/(1024*1024))
	}
	fmt.Printf("  Goroutines: %v\n", metrics["goroutines"])
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
