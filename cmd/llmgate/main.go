package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/relaywise/llmgate/internal/cache"
	"github.com/relaywise/llmgate/internal/config"
	"github.com/relaywise/llmgate/internal/gateway"
	"github.com/relaywise/llmgate/internal/ledger"
	"github.com/relaywise/llmgate/internal/transport"
)

var (
	configFile string
	verbose    bool
)

func main() {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "llmgate",
		Short: "Budget-governed, cached client for a generative-text API",
		Long: `llmgate sends prompts to an upstream text-generation API through a
content-addressed response cache and a per-day spending ledger, so repeated
identical prompts cost nothing and daily spend stays visible and bounded.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configFile)
}

func generateCmd() *cobra.Command {
	var (
		model     string
		system    string
		maxTokens int
		temp      float64
		rateRPS   float64
		asJSON    bool
		noCache   bool
		setTemp   bool
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Send a prompt and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if rateRPS > 0 {
				cfg.RateLimitRPS = rateRPS
			}
			tr, err := transport.NewAnthropic(cfg.APIKey)
			if err != nil {
				return err
			}
			client, err := gateway.Open(cfg, tr)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := gateway.Options{
				Model:     model,
				System:    system,
				MaxTokens: maxTokens,
				UseCache:  !noCache,
			}
			if setTemp {
				opts.Temperature = gateway.Float64(temp)
			}

			if asJSON {
				var value any
				if err := client.GenerateJSON(cmd.Context(), args[0], opts, &value); err != nil {
					return err
				}
				out, err := json.MarshalIndent(value, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			text, err := client.GenerateText(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model identifier (default from config)")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token ceiling (default from config)")
	cmd.Flags().Float64Var(&temp, "temperature", 0, "sampling temperature in [0,1]")
	cmd.Flags().Float64Var(&rateRPS, "rate-limit", 0, "max upstream calls per second (0 = unlimited)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "demand a JSON response and print the extracted value")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache for this call")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		setTemp = cmd.Flags().Changed("temperature")
	}

	return cmd
}

func usageCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded spend for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			led := ledger.New(cfg.Storage.LedgerPath)

			if date == "" {
				date = ledger.Today()
			}
			day := led.StatsFor(date)

			fmt.Printf("%s  requests=%d  cost=$%.4f\n", date, day.RequestCount, day.TotalCost)
			for model, cost := range day.PerModelCost {
				fmt.Printf("  %-40s $%.4f\n", model, cost)
			}
			if remaining, ok := led.RemainingBudget(date, cfg.Budget.Daily); ok {
				fmt.Printf("remaining budget: $%.4f of $%.4f\n", remaining, cfg.Budget.Daily)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to report (YYYY-MM-DD, default today)")

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Zero the ledger for all days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := ledger.New(cfg.Storage.LedgerPath).Reset(); err != nil {
				return err
			}
			fmt.Println("usage ledger reset")
			return nil
		},
	})

	return cmd
}

func cacheCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Response cache maintenance",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cache entries older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg.Storage.CachePath)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.PruneOlderThan(olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d cache entries older than %s\n", n, olderThan)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age threshold, e.g. 720h")
	cmd.AddCommand(prune)

	return cmd
}
