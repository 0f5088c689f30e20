package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Formalizer turns one statement into a structured result. The engine's
// pipeline satisfies this interface.
type Formalizer interface {
	Formalize(ctx context.Context, text string) (*model.FormalizationResult, error)
}

// FormalizeJob is one statement bound to an engine.
type FormalizeJob struct {
	Index     int
	Statement string
	Engine    Formalizer
}

// Execute implements Job.
func (j *FormalizeJob) Execute(ctx context.Context) Result {
	res, err := j.Engine.Formalize(ctx, j.Statement)
	return &FormalizeResult{Index: j.Index, Statement: j.Statement, Result: res, Err: err}
}

// FormalizeResult pairs a statement with its outcome.
type FormalizeResult struct {
	Index     int
	Statement string
	Result    *model.FormalizationResult
	Err       error
}

// GetError implements Result.
func (r *FormalizeResult) GetError() error { return r.Err }

// BatchProcessor runs many statements through an engine concurrently.
// Statements are independent requests; nothing is shared between them
// beyond the engine itself.
type BatchProcessor struct {
	engine      Formalizer
	concurrency int
}

// NewBatchProcessor creates a processor with the given concurrency.
func NewBatchProcessor(engine Formalizer, concurrency int) *BatchProcessor {
	return &BatchProcessor{engine: engine, concurrency: concurrency}
}

// ProcessStatements formalizes every statement and returns the results
// in input order. Cancelling ctx stops submission, cancels in-flight
// runs and returns whatever completed.
func (b *BatchProcessor) ProcessStatements(ctx context.Context, statements []string) []*FormalizeResult {
	if len(statements) == 0 {
		return []*FormalizeResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-watchDone:
		}
	}()

	for i, stmt := range statements {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&FormalizeJob{Index: i, Statement: stmt, Engine: b.engine})
	}

	raw := pool.Wait()
	results := make([]*FormalizeResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, r.(*FormalizeResult))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads statements from a file and formalizes them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*FormalizeResult, error) {
	statements, err := ReadStatementsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statements: %w", err)
	}
	return b.ProcessStatements(ctx, statements), nil
}

// ReadStatementsFromFile reads one statement per line, skipping blank
// lines and # comments. Repeated lines are kept: every line is its own
// request.
func ReadStatementsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var statements []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		statements = append(statements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	return statements, nil
}
