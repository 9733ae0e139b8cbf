// Package clipper turns recipe videos and pages into recipe drafts with the
// help of a language model.
package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"meal-planner/internal/llm"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
	"meal-planner/internal/storage"
)

var (
	ErrExtractionFailed = errors.New("recipe extraction failed")
	ErrNoRecipeFound    = errors.New("no recipe text found")
)

const agentName = "Extractor"

// Options tune a Clipper. Zero values use the defaults.
type Options struct {
	Timeout    time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	textGen    llm.TextGenerator
	docs       storage.Store
	httpClient *http.Client
	timeout    time.Duration
	cache      *expirable.LRU[string, recipe.Recipe]

	// mu serializes writes to the persisted cache document.
	mu sync.Mutex
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, docs storage.Store, opts Options) *Clipper {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Clipper{
		textGen:    textGen,
		docs:       docs,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		cache:      expirable.NewLRU[string, recipe.Recipe](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Extract returns a recipe draft for sourceURL. Results are cached by URL,
// in memory and in the document store, so a source is only sent to the
// model once it has produced a usable recipe.
func (c *Clipper) Extract(ctx context.Context, sourceURL string) (*recipe.Recipe, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, fmt.Errorf("%w: source url is empty", ErrExtractionFailed)
	}
	log := logger.FromContext(ctx).With("source_url", sourceURL)

	if r, ok := c.cached(ctx, sourceURL); ok {
		metrics.ExtractionRequests.WithLabelValues(metrics.ResultHit).Inc()
		log.Debug("Extraction cache hit")
		return &r, nil
	}

	r, err := c.extract(ctx, sourceURL)
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues(metrics.ResultError).Inc()
		log.Warn("Recipe extraction failed", "error", err)
		return nil, err
	}
	metrics.ExtractionRequests.WithLabelValues(metrics.ResultMiss).Inc()

	if err := c.remember(ctx, sourceURL, *r); err != nil {
		log.Error("Failed to persist extraction cache", "error", err)
	}
	log.Info("Extracted recipe", "name", r.Name)
	return r, nil
}

func (c *Clipper) extract(ctx context.Context, sourceURL string) (*recipe.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	src, err := c.fetchSource(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch content: %v", ErrExtractionFailed, err)
	}
	if src.Empty() {
		return nil, ErrNoRecipeFound
	}

	prompt, err := buildPrompt(src)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build prompt: %v", ErrExtractionFailed, err)
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: ai extraction failed: %v", ErrExtractionFailed, err)
	}
	metrics.RecordMeta(shared.AgentMeta{AgentName: agentName, Usage: resp.Usage, Latency: time.Since(start)})

	return parseRecipe(resp.Content, src.Title, sourceURL)
}

// parseRecipe decodes a model reply into a recipe draft.
func parseRecipe(content, title, sourceURL string) (*recipe.Recipe, error) {
	payload, err := extractJSONPayload(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("%w: failed to parse AI response: %v", ErrExtractionFailed, err)
	}
	if len(r.IngredientsFor(recipe.English)) == 0 && len(r.InstructionsFor(recipe.English)) == 0 &&
		len(r.Ingredients[recipe.Original]) == 0 && len(r.Instructions[recipe.Original]) == 0 {
		return nil, ErrNoRecipeFound
	}

	if strings.TrimSpace(r.Name) == "" {
		r.Name = firstNonEmpty(title, "YouTube recipe")
	}
	if len(r.MealTypes) == 0 {
		r.MealTypes = []string{"dinner"}
	}
	if len(r.Ingredients[recipe.Original]) == 0 {
		r.SetIngredients(recipe.Original, r.Ingredients[recipe.English])
	}
	if len(r.Instructions[recipe.Original]) == 0 {
		r.SetInstructions(recipe.Original, r.Instructions[recipe.English])
	}
	r.ID = ""
	r.SourceURL = sourceURL
	return &r, nil
}

// usable reports whether a cached draft is worth reusing.
func usable(r recipe.Recipe) bool {
	return len(r.Instructions[recipe.English]) > 0 || len(r.Ingredients[recipe.Original]) > 0
}

func (c *Clipper) cached(ctx context.Context, sourceURL string) (recipe.Recipe, bool) {
	if r, ok := c.cache.Get(sourceURL); ok && usable(r) {
		return r, true
	}

	entries, err := c.loadCache(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to read extraction cache", "error", err)
		return recipe.Recipe{}, false
	}
	raw, ok := entries[sourceURL]
	if !ok {
		return recipe.Recipe{}, false
	}
	var r recipe.Recipe
	if err := json.Unmarshal(raw, &r); err != nil || !usable(r) {
		return recipe.Recipe{}, false
	}
	c.cache.Add(sourceURL, r)
	return r, true
}

func (c *Clipper) loadCache(ctx context.Context) (map[string]json.RawMessage, error) {
	entries := map[string]json.RawMessage{}
	if _, err := storage.GetJSON(ctx, c.docs, storage.KeyExtractionCache, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Clipper) remember(ctx context.Context, sourceURL string, r recipe.Recipe) error {
	c.cache.Add(sourceURL, r)

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.loadCache(ctx)
	if err != nil {
		// An unreadable cache document is replaced.
		entries = map[string]json.RawMessage{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode extraction: %w", err)
	}
	entries[sourceURL] = data
	return storage.PutJSON(ctx, c.docs, storage.KeyExtractionCache, entries)
}
