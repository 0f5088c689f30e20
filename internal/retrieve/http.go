package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/formalhaus/formalis/internal/cache"
	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/score"
	"github.com/formalhaus/formalis/internal/util"
	"github.com/formalhaus/formalis/internal/worker"
)

const (
	httpID       = "http"
	fetchTimeout = 20 * time.Second
	maxBodyBytes = 2 << 20
	defaultTopK  = 3
)

// HTTPRetriever resolves context by fetching configured source URLs.
// Each source is a URL template with a {query} placeholder. Fetches
// honor robots.txt, per-host rate limits and the document cache.
type HTTPRetriever struct {
	client    *http.Client
	sources   []string
	userAgent string
	limiter   *worker.Limiter
	robots    *util.RobotsChecker
	store     cache.Cache
	scorer    *score.Scorer
	ttl       time.Duration
}

// NewHTTPRetriever builds the retriever from configuration, filling in
// conservative defaults for anything unset.
func NewHTTPRetriever(cfg model.RetrievalConfig) *HTTPRetriever {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "formalis/1.0"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	var store cache.Cache
	if cfg.CacheDir != "" {
		store = cache.NewLayeredCache(10*time.Minute, cfg.CacheDir, ttl)
	} else {
		store = cache.NewMemoryCache(ttl, 10*time.Minute)
	}

	return &HTTPRetriever{
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		sources:   cfg.Sources,
		userAgent: ua,
		limiter:   worker.NewLimiter(rps, 1),
		robots:    util.NewRobotsChecker(util.NormalizeUserAgent(ua), 10*time.Second),
		store:     store,
		scorer:    score.NewScorer(),
		ttl:       ttl,
	}
}

// Name implements Retriever.
func (r *HTTPRetriever) Name() string { return httpID }

// Retrieve implements Retriever. Unreachable or disallowed sources are
// skipped; the error is only surfaced when no source yielded anything.
func (r *HTTPRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = defaultTopK
	}

	var docs []Document
	var lastErr error
	for _, tmpl := range r.sources {
		target := strings.ReplaceAll(tmpl, "{query}", url.QueryEscape(query))
		doc, err := r.fetchDocument(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		doc.Score = r.scorer.Relevance(query, doc.Title, doc.Text)
		docs = append(docs, *doc)
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("no source yielded context: %w", lastErr)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

// Summarize implements Retriever.
func (r *HTTPRetriever) Summarize(ctx context.Context, doc Document, span model.Span) (string, error) {
	if doc.Text == "" {
		return "", fmt.Errorf("document %s has no text", doc.SourceID)
	}
	return clip(doc.Text, span), nil
}

func (r *HTTPRetriever) fetchDocument(ctx context.Context, target string) (*Document, error) {
	key := cache.Key(target)
	if raw, found := r.store.Get(key); found {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err == nil {
			return &doc, nil
		}
		_ = r.store.Delete(key)
	}

	allowed, crawlDelay, err := r.robots.CanFetch(ctx, target)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows %s", target)
	}
	if err := r.limiter.WaitWithDelay(ctx, target, crawlDelay); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	title, text, err := parsePage(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	if title == "" {
		title = subjectFromURL(finalURL)
	}

	doc := &Document{
		SourceID: SourceID(finalURL),
		URL:      finalURL,
		Title:    title,
		Text:     text,
	}
	if raw, err := json.Marshal(doc); err == nil {
		_ = r.store.Set(key, raw, r.ttl)
	}
	return doc, nil
}
