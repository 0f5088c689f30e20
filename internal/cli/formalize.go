package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/pipeline"
)

var (
	outJSON        string
	outYAML        string
	outMD          string
	runTimeout     time.Duration
	adapterID      string
	adapterModel   string
	adapterTimeout time.Duration
	reproducible   bool
	privacy        string
	salt           string
	retrievalOn    bool
	sources        []string
	cacheDir       string
	rps            float64
	userAgent      string
	httpProxy      string
	httpsProxy     string
	topK           int
	maxClauses     int
	quantDetail    bool
	noFooter       bool
)

// formalizeCmd represents the formalize command
var formalizeCmd = &cobra.Command{
	Use:   "formalize [statement]",
	Short: "Formalize a single statement into claims, a legend and CNF",
	Long: `Formalize analyzes one natural-language statement to:
- Carve it into atomic claims with byte-span provenance
- Expand quantifier presuppositions into reduced claims
- Assign a bijective symbol legend (P1, P2, ...)
- Derive a logical form and its conjunctive normal form
- Validate coverage, contradictions and confidence

The statement comes from the arguments, or from stdin when absent.

Example:
  formalis formalize "If Alice owns a red car then she prefers driving."
  formalis formalize --reproducible --json out.json "Every cat purrs."
  echo "Alice must file the report." | formalis formalize --md report.md
  formalis formalize --adapter openai "Some birds cannot fly."`,
	Args: cobra.ArbitraryArgs,
	RunE: runFormalize,
}

func init() {
	rootCmd.AddCommand(formalizeCmd)

	// Output flags
	formalizeCmd.Flags().StringVar(&outJSON, "json", "result.json", "output JSON path (empty to skip)")
	formalizeCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (optional)")
	formalizeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	formalizeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Run flags
	formalizeCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "overall run timeout")
	formalizeCmd.Flags().BoolVar(&reproducible, "reproducible", false, "deterministic ids, clock and adapter")
	formalizeCmd.Flags().StringVar(&privacy, "privacy", "default", "privacy mode (default, strict)")
	formalizeCmd.Flags().StringVar(&salt, "salt", "formalis", "provenance id salt")
	formalizeCmd.Flags().IntVar(&topK, "top-k", 1, "candidate logical forms to keep")
	formalizeCmd.Flags().IntVar(&maxClauses, "max-clauses", 512, "CNF distribution ceiling")
	formalizeCmd.Flags().BoolVar(&quantDetail, "quantifier-detail", false, "record per-quantifier reduction rationale")

	// Adapter flags
	formalizeCmd.Flags().StringVar(&adapterID, "adapter", "mock", "adapter (mock, openai, none)")
	formalizeCmd.Flags().StringVar(&adapterModel, "adapter-model", "gpt-4o-mini", "adapter model name")
	formalizeCmd.Flags().DurationVar(&adapterTimeout, "adapter-timeout", 30*time.Second, "per-attempt adapter deadline")

	// Retrieval flags
	formalizeCmd.Flags().BoolVar(&retrievalOn, "retrieval", false, "enrich with external context documents")
	formalizeCmd.Flags().StringSliceVar(&sources, "source", nil, "retrieval URL template with a {query} placeholder (repeatable)")
	formalizeCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "document cache directory (memory-only when empty)")
	formalizeCmd.Flags().Float64Var(&rps, "rps", 1.0, "retrieval requests per second per host")
	formalizeCmd.Flags().StringVar(&userAgent, "ua", "formalis/1.0", "HTTP User-Agent for retrieval")
	formalizeCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	formalizeCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runFormalize(cmd *cobra.Command, args []string) error {
	statement, err := gatherStatement(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Formalizing: %s\n", statement)
		fmt.Fprintf(os.Stderr, "Adapter: %s\n", opts.AdapterID)
		fmt.Fprintf(os.Stderr, "Reproducible: %v\n", opts.ReproducibleMode)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return fmt.Errorf("configure pipeline: %w", err)
	}

	res, err := p.Formalize(ctx, statement)
	if err != nil {
		return fmt.Errorf("formalize failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Reduced to %d atomic claims\n", len(res.AtomicClaims))
		fmt.Fprintf(os.Stderr, "✓ Legend of %d symbols\n", len(res.Legend))
		fmt.Fprintf(os.Stderr, "✓ Produced %d CNF clauses\n", len(res.CNFClauses))
		if len(res.Warnings) > 0 {
			fmt.Fprintf(os.Stderr, "! %d warnings\n", len(res.Warnings))
		}
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(!noFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(res, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outYAML != "" {
		if err := renderer.RenderYAML(res, outYAML); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote YAML: %s\n", outYAML)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(res, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	// Print summary to stdout
	renderer.RenderSummary(res)

	return nil
}

// gatherStatement joins the argument words, or reads stdin when no
// arguments were given.
func gatherStatement(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no statement given: pass it as an argument or on stdin")
	}
	return string(data), nil
}

// buildOptions resolves the run configuration once: defaults first, then
// config file and environment, then explicit flags. The pipeline receives
// the result as an immutable value.
func buildOptions(cmd *cobra.Command) (model.Options, error) {
	opts := model.DefaultOptions()
	applyViper(&opts)

	flags := cmd.Flags()
	if flags.Changed("adapter") {
		opts.AdapterID = adapterID
	}
	if flags.Changed("adapter-model") {
		opts.Adapter.Model = adapterModel
	}
	if flags.Changed("adapter-timeout") {
		opts.AdapterTimeout = adapterTimeout
	}
	if flags.Changed("reproducible") {
		opts.ReproducibleMode = reproducible
	}
	if flags.Changed("privacy") {
		opts.PrivacyMode = model.PrivacyMode(privacy)
	}
	if flags.Changed("salt") {
		opts.Salt = salt
	}
	if flags.Changed("retrieval") {
		opts.RetrievalEnabled = retrievalOn
	}
	if flags.Changed("source") {
		opts.Retrieval.Sources = sources
	}
	if flags.Changed("cache-dir") {
		opts.Retrieval.CacheDir = cacheDir
	}
	if flags.Changed("rps") {
		opts.Retrieval.RequestsPerSecond = rps
	}
	if flags.Changed("ua") {
		opts.Retrieval.UserAgent = userAgent
	}
	if flags.Changed("http-proxy") {
		opts.Retrieval.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		opts.Retrieval.HTTPSProxy = httpsProxy
	}
	if flags.Changed("top-k") {
		opts.TopKSymbolizations = topK
	}
	if flags.Changed("max-clauses") {
		opts.MaxClauses = maxClauses
	}
	if flags.Changed("quantifier-detail") {
		opts.QuantifierReductionDetail = quantDetail
	}

	// Get API key from environment
	if opts.AdapterID == "openai" && !opts.ReproducibleMode {
		opts.Adapter.APIKey = os.Getenv("OPENAI_API_KEY")
		if opts.Adapter.APIKey == "" {
			return opts, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	return opts, nil
}
