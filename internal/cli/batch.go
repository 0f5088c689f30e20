package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/formalhaus/formalis/internal/pipeline"
	"github.com/formalhaus/formalis/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// Adapter, retrieval and privacy flags are defined in formalize.go
	// and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Formalize multiple statements from a file in parallel",
	Long: `Batch processes multiple statements concurrently:
- Read statements from input file (one per line, # comments skipped)
- Formalize statements in parallel with configurable worker count
- Results come back in input order regardless of completion order
- Generate individual JSON and Markdown results per statement

Example:
  formalis batch statements.txt
  formalis batch statements.txt --concurrency 10 --output-dir ./results
  formalis batch statements.txt --reproducible --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./formalis-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Run flags shared with the formalize command
	batchCmd.Flags().BoolVar(&reproducible, "reproducible", false, "deterministic ids, clock and adapter")
	batchCmd.Flags().StringVar(&privacy, "privacy", "default", "privacy mode (default, strict)")
	batchCmd.Flags().StringVar(&salt, "salt", "formalis", "provenance id salt")
	batchCmd.Flags().IntVar(&topK, "top-k", 1, "candidate logical forms to keep")
	batchCmd.Flags().IntVar(&maxClauses, "max-clauses", 512, "CNF distribution ceiling")
	batchCmd.Flags().BoolVar(&quantDetail, "quantifier-detail", false, "record per-quantifier reduction rationale")

	// Adapter flags
	batchCmd.Flags().StringVar(&adapterID, "adapter", "mock", "adapter (mock, openai, none)")
	batchCmd.Flags().StringVar(&adapterModel, "adapter-model", "gpt-4o-mini", "adapter model name")
	batchCmd.Flags().DurationVar(&adapterTimeout, "adapter-timeout", 30*time.Second, "per-attempt adapter deadline")

	// Retrieval flags
	batchCmd.Flags().BoolVar(&retrievalOn, "retrieval", false, "enrich with external context documents")
	batchCmd.Flags().StringSliceVar(&sources, "source", nil, "retrieval URL template with a {query} placeholder (repeatable)")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "document cache directory (memory-only when empty)")
	batchCmd.Flags().Float64Var(&rps, "rps", 1.0, "retrieval requests per second per host")
	batchCmd.Flags().StringVar(&userAgent, "ua", "formalis/1.0", "HTTP User-Agent for retrieval")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Formalis Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create pipeline
	p, err := pipeline.New(opts)
	if err != nil {
		return fmt.Errorf("configure pipeline: %w", err)
	}

	// Create batch processor
	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Processing statements with %d workers...\n", concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Processed %d statements\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(!noFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", statementExcerpt(result.Statement), result.Err)
			continue
		}

		successCount++

		// Output names keep input order and stay unique per request
		name := fmt.Sprintf("%03d-%s", result.Index+1, result.Result.RequestID)
		jsonPath := filepath.Join(outputDir, name+".json")
		mdPath := filepath.Join(outputDir, name+".md")

		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", statementExcerpt(result.Statement), err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Result, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", statementExcerpt(result.Statement), err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (confidence %.2f)\n", statementExcerpt(result.Statement), result.Result.Confidence)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d statements\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// statementExcerpt keeps progress lines on one terminal row.
func statementExcerpt(s string) string {
	if len(s) <= 48 {
		return s
	}
	return s[:48] + "..."
}
