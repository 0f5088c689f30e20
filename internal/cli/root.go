package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/formalhaus/formalis/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "formalis",
	Short: "Formalis - Natural-language statements to auditable propositional logic",
	Long: `Formalis turns a natural-language statement into structured logic:
atomic claims (E1, E2, ... and reduced R1, R2, ...), a symbol legend
(P1, P2, ...), a chosen logical form, and its conjunctive normal form.

Every intermediate decision is recorded in per-stage provenance with an
ordered event log, so each clause can be traced back to the exact input
spans it came from.

Formalis does not decide whether a statement is true. It derives the
minimal logical structure the statement would need to be true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Formalis.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("formalis v1.0.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.formalis/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.formalis")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match FORMALIS_*
	viper.SetEnvPrefix("FORMALIS")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// applyViper overlays config-file and environment values onto opts. Flags
// are applied after this, so the priority order stays flags over
// environment over file over defaults.
func applyViper(opts *model.Options) {
	if viper.IsSet("adapter") {
		opts.AdapterID = viper.GetString("adapter")
	}
	if viper.IsSet("adapter_config.model") {
		opts.Adapter.Model = viper.GetString("adapter_config.model")
	}
	if viper.IsSet("adapter_config.base_url") {
		opts.Adapter.BaseURL = viper.GetString("adapter_config.base_url")
	}
	if viper.IsSet("adapter_config.max_tokens") {
		opts.Adapter.MaxTokens = viper.GetInt("adapter_config.max_tokens")
	}
	if viper.IsSet("adapter_timeout") {
		opts.AdapterTimeout = viper.GetDuration("adapter_timeout")
	}
	if viper.IsSet("reproducible") {
		opts.ReproducibleMode = viper.GetBool("reproducible")
	}
	if viper.IsSet("privacy") {
		opts.PrivacyMode = model.PrivacyMode(viper.GetString("privacy"))
	}
	if viper.IsSet("salt") {
		opts.Salt = viper.GetString("salt")
	}
	if viper.IsSet("retrieval") {
		opts.RetrievalEnabled = viper.GetBool("retrieval")
	}
	if viper.IsSet("retrieval_config.mode") {
		opts.Retrieval.Mode = viper.GetString("retrieval_config.mode")
	}
	if viper.IsSet("retrieval_config.sources") {
		opts.Retrieval.Sources = viper.GetStringSlice("retrieval_config.sources")
	}
	if viper.IsSet("retrieval_config.user_agent") {
		opts.Retrieval.UserAgent = viper.GetString("retrieval_config.user_agent")
	}
	if viper.IsSet("retrieval_config.requests_per_second") {
		opts.Retrieval.RequestsPerSecond = viper.GetFloat64("retrieval_config.requests_per_second")
	}
	if viper.IsSet("retrieval_config.cache_dir") {
		opts.Retrieval.CacheDir = viper.GetString("retrieval_config.cache_dir")
	}
	if viper.IsSet("retrieval_config.http_proxy") {
		opts.Retrieval.HTTPProxy = viper.GetString("retrieval_config.http_proxy")
	}
	if viper.IsSet("retrieval_config.https_proxy") {
		opts.Retrieval.HTTPSProxy = viper.GetString("retrieval_config.https_proxy")
	}
	if viper.IsSet("top_k_symbolizations") {
		opts.TopKSymbolizations = viper.GetInt("top_k_symbolizations")
	}
	if viper.IsSet("max_clauses") {
		opts.MaxClauses = viper.GetInt("max_clauses")
	}
	if viper.IsSet("quantifier_reduction_detail") {
		opts.QuantifierReductionDetail = viper.GetBool("quantifier_reduction_detail")
	}
	if viper.IsSet("stage_confidence_threshold") {
		opts.StageConfidenceThreshold = viper.GetFloat64("stage_confidence_threshold")
	}
	if viper.IsSet("provenance_coverage_threshold") {
		opts.ProvenanceCoverageThreshold = viper.GetFloat64("provenance_coverage_threshold")
	}
	if viper.IsSet("contradiction_floor") {
		opts.ContradictionFloor = viper.GetFloat64("contradiction_floor")
	}
}
