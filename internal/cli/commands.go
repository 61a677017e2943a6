package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/internal/dataflows"
	"github.com/dyike/CandleCorr/internal/logger"
	"github.com/dyike/CandleCorr/internal/workflow"
	"github.com/dyike/CandleCorr/models"
)

// Version is the release reported by the version command.
const Version = "v1.0.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	// Initialize configuration early
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "candlecorr",
		Short: "CandleCorr - candlestick charts and price correlations",
		Long: `CandleCorr downloads daily price history from Yahoo Finance, draws candlestick
charts for a date range and prints the correlation matrix of closing prices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyGlobalFlags(cmd, cfg); err != nil {
				return err
			}
			logger.Init(cfg.Debug)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			// Ensure directories exist
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return runInteractiveMode(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newChartCmd(cfg))
	rootCmd.AddCommand(newCorrCmd(cfg))
	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("backend", "", "Market data backend (chart-api or finance-go)")
	rootCmd.PersistentFlags().String("results-dir", "", "Directory for generated charts")

	return rootCmd
}

// applyGlobalFlags copies explicitly set persistent flags over cfg.
func applyGlobalFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("debug") {
		debug, err := flags.GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = debug
	}
	if flags.Changed("backend") {
		backend, err := flags.GetString("backend")
		if err != nil {
			return err
		}
		cfg.DataBackend = strings.ToLower(strings.TrimSpace(backend))
	}
	if flags.Changed("results-dir") {
		dir, err := flags.GetString("results-dir")
		if err != nil {
			return err
		}
		cfg.ResultsDir = dir
	}
	return nil
}

// addRangeFlags registers --start and --end on cmd.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "Start date in YYYY-MM-DD format (earliest available if empty)")
	cmd.Flags().String("end", "", "End date in YYYY-MM-DD format (latest available if empty)")
}

func rangeFromFlags(cmd *cobra.Command, cfg *config.Config) (models.DateRange, error) {
	loc, err := cfg.Location()
	if err != nil {
		return models.DateRange{}, err
	}
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	return dataflows.ParseDateRange(start, end, loc)
}

// symbolsFromArgs accepts both "AAPL MSFT" and "AAPL,MSFT" forms.
func symbolsFromArgs(args []string) ([]string, error) {
	symbols := dataflows.ParseSymbols(strings.Join(args, ","))
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	for _, symbol := range symbols {
		if err := dataflows.ValidateSymbol(symbol); err != nil {
			return nil, err
		}
	}
	return symbols, nil
}

func newSession(cfg *config.Config, out io.Writer) (*workflow.Session, error) {
	provider, err := dataflows.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create data provider: %w", err)
	}
	return workflow.NewSession(cfg, provider, out), nil
}

// newHistoryCmd creates the history command
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "history SYMBOL...",
		Short: "Show the available price history for symbols",
		Long: `Download the full daily history for each symbol and report the available
date span with a preview of the first rows.
Example: candlecorr history AAPL MSFT`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := symbolsFromArgs(args)
			if err != nil {
				return err
			}
			session, err := newSession(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			histories, err := session.LoadHistories(cmd.Context(), symbols)
			if err != nil {
				return err
			}
			session.ReportAvailability(histories)
			return nil
		},
	}
}

// newChartCmd creates the chart command
func newChartCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart SYMBOL...",
		Short: "Render candlestick charts for a date range",
		Long: `Render one candlestick chart per symbol and a combined chart, restricted
to the requested date range.
Example: candlecorr chart AAPL,MSFT --start=2023-01-01 --end=2023-12-31`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := symbolsFromArgs(args)
			if err != nil {
				return err
			}
			r, err := rangeFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("open") {
				cfg.OpenBrowser, _ = cmd.Flags().GetBool("open")
			}
			session, err := newSession(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			histories, err := session.LoadHistories(cmd.Context(), symbols)
			if err != nil {
				return err
			}
			if len(histories) == 0 {
				session.Printer().Info("Nothing to chart.")
				return nil
			}
			_, err = session.RenderCharts(session.ApplyRange(histories, r))
			return err
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().Bool("open", false, "Open the generated charts in the browser")

	return cmd
}

// newCorrCmd creates the corr command
func newCorrCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corr SYMBOL...",
		Short: "Print the correlation matrix of closing prices",
		Long: `Correlate daily closing prices between symbols over a date range.
Example: candlecorr corr AAPL MSFT GOOGL --start=2023-01-01 --method=spearman`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := symbolsFromArgs(args)
			if err != nil {
				return err
			}
			r, err := rangeFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			if err := applyMethodFlag(cmd, cfg); err != nil {
				return err
			}
			session, err := newSession(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			histories, err := session.LoadHistories(cmd.Context(), symbols)
			if err != nil {
				return err
			}
			if len(histories) == 0 {
				session.Printer().Info("Nothing to correlate.")
				return nil
			}
			filtered := make([]*models.PriceHistory, 0, len(histories))
			for _, h := range histories {
				filtered = append(filtered, h.Between(r))
			}
			_, err = session.Correlate(filtered)
			return err
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().String("method", "", "Correlation method (pearson or spearman)")

	return cmd
}

// newRunCmd creates the run command
func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SYMBOL...",
		Short: "Fetch, chart and correlate symbols in one pass",
		Long: `Run the whole pipeline non-interactively: report availability, filter to the
date range, render charts and print the correlation matrix.
Example: candlecorr run AAPL MSFT --start=2023-01-01 --end=2023-06-30 --open`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := symbolsFromArgs(args)
			if err != nil {
				return err
			}
			r, err := rangeFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			if err := applyMethodFlag(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("open") {
				cfg.OpenBrowser, _ = cmd.Flags().GetBool("open")
			}
			session, err := newSession(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			_, err = session.Run(cmd.Context(), symbols, r)
			return err
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().Bool("open", false, "Open the generated charts in the browser")
	cmd.Flags().String("method", "", "Correlation method (pearson or spearman)")

	return cmd
}

func applyMethodFlag(cmd *cobra.Command, cfg *config.Config) error {
	if !cmd.Flags().Changed("method") {
		return nil
	}
	method, _ := cmd.Flags().GetString("method")
	cfg.CorrelationMethod = strings.ToLower(strings.TrimSpace(method))
	return cfg.Validate()
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CandleCorr %s\n", Version)
			fmt.Fprintln(out, "Candlestick charts and correlation matrices for Yahoo Finance data")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Inspect and validate CandleCorr configuration settings",
	}

	// config show subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cmd.OutOrStdout(), cfg)
		},
	})

	// config validate subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), cfg)
		},
	})

	return configCmd
}

// showConfig displays the current configuration
func showConfig(w io.Writer, cfg *config.Config) {
	DisplaySection(w, "Current CandleCorr Configuration")
	displayKeyValue(w, "Project Directory", cfg.ProjectDir)
	displayKeyValue(w, "Results Directory", cfg.ResultsDir)
	fmt.Fprintln(w)
	displayKeyValue(w, "Data Backend", cfg.DataBackend)
	displayKeyValue(w, "Yahoo Base URL", cfg.YahooBaseURL)
	displayKeyValue(w, "Request Timeout", cfg.RequestTimeout)
	displayKeyValue(w, "Timezone", cfg.Timezone)
	displayKeyValue(w, "Cache TTL", cfg.CacheTTL)
	fmt.Fprintln(w)
	displayKeyValue(w, "Preview Rows", cfg.PreviewRows)
	displayKeyValue(w, "Chart Size", fmt.Sprintf("%dx%d", cfg.ChartWidth, cfg.ChartHeight))
	displayKeyValue(w, "Rising / Falling", cfg.IncreasingColor+" / "+cfg.DecreasingColor)
	displayKeyValue(w, "Palette", strings.Join(cfg.Palette, ", "))
	displayKeyValue(w, "Open Browser", cfg.OpenBrowser)
	fmt.Fprintln(w)
	displayKeyValue(w, "Correlation Method", cfg.CorrelationMethod)
	displayKeyValue(w, "Debug Mode", cfg.Debug)
}

// validateConfig validates the configuration
func validateConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, "Validating CandleCorr configuration...")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(w, failStyle.Render("✗ "+err.Error()))
		return err
	}
	if _, err := dataflows.NewProvider(cfg); err != nil {
		fmt.Fprintln(w, failStyle.Render("✗ "+err.Error()))
		return err
	}
	fmt.Fprintln(w, okStyle.Render("✓ Configuration is valid"))
	return nil
}

// runInteractiveMode prompts for symbols and a date range, then charts and
// correlates them until the user chooses to exit.
func runInteractiveMode(ctx context.Context, cfg *config.Config, out io.Writer) error {
	DisplayWelcomeBanner(out)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	session, err := newSession(cfg, out)
	if err != nil {
		return err
	}

	for {
		symbols, err := PromptForSymbols()
		if err != nil {
			return err
		}

		histories, err := session.LoadHistories(ctx, symbols)
		if err != nil {
			return err
		}
		if len(histories) == 0 {
			session.Printer().Info("Nothing to chart or correlate.")
		} else {
			session.ReportAvailability(histories)

			r, err := PromptForDateRange(loc)
			if err != nil {
				return err
			}
			if _, err := session.Analyze(histories, r); err != nil {
				return err
			}
		}

		again, err := PromptForRestartOrExit()
		if err != nil {
			return err
		}
		if !again {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
	}
}
