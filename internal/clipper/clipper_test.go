package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
	"meal-planner/internal/storage"
)

// --- Mocks ---

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Calls       atomic.Int32
	LastPrompt  string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Calls.Add(1)
	m.LastPrompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, errors.New("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Model: "mock"},
	}, nil
}

const videoPage = `
<html>
	<head>
		<title>Kimchi Stew - YouTube</title>
		<meta property="og:title" content="Easy Kimchi Stew">
		<meta name="description" content="Short description">
		<script>var ytInitialPlayerResponse = {"videoDetails": {"shortDescription": "⠀Full recipe below\n김치 300g"}};</script>
		<script>var ytInitialData = {"contents": [{"commentThreadRenderer": {"comment": {"commentRenderer": {"contentText": {"runs": [{"text": "Ingredients: "}, {"text": "kimchi, pork"}]}}}}}]};</script>
	</head>
	<body><p>Video</p></body>
</html>`

const aiResponse = "```json\n" + `{
	"name": "Kimchi Stew",
	"meal_types": ["dinner", "lunch"],
	"servings": "2 people",
	"ingredients": [{"name": "Kimchi", "quantity": "300", "unit": "g"}],
	"ingredients_original": [{"name": "김치", "quantity": 300, "unit": "그램"}],
	"instructions": ["Boil"]
}` + "\n```"

func newTestClipper(t *testing.T, gen llm.TextGenerator) (*Clipper, *storage.FileStore) {
	t.Helper()
	docs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewClipper(gen, docs, Options{}), docs
}

func pageServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Tests ---

func TestParseSourceVideoPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(videoPage))
	require.NoError(t, err)

	src := parseSource(doc)
	assert.Equal(t, "Easy Kimchi Stew", src.Title)
	assert.Equal(t, "Full recipe below\n김치 300g", src.Description)
	assert.Equal(t, "Ingredients: kimchi, pork", src.TopComment)
}

func TestParseSourceFallsBackToBody(t *testing.T) {
	html := `
	<html>
		<head><title>Tasty Recipe</title><script>alert('bad');</script></head>
		<body>
			<h1>Tasty Recipe</h1>
			<div class="ads">Buy stuff!</div>
			<p>Mix flour and water.</p>
			<footer>Copyright 2024</footer>
		</body>
	</html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	src := parseSource(doc)
	assert.Equal(t, "Tasty Recipe", src.Title)
	assert.Equal(t, "Tasty Recipe Mix flour and water.", src.Description)
	assert.NotContains(t, src.Description, "Buy stuff!")
	assert.NotContains(t, src.Description, "Copyright")
}

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"Plain", `{"a": 1}`, `{"a": 1}`, false},
		{"Fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"Prose", "Here you go: {\"a\": {\"b\": 2}} enjoy", `{"a": {"b": 2}}`, false},
		{"None", "sorry", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONPayload(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYouTubeID(t *testing.T) {
	assert.Equal(t, "abc123", YouTubeID("https://www.youtube.com/watch?v=abc123&t=10"))
	assert.Equal(t, "xyz", YouTubeID("https://youtube.com/shorts/xyz/extra"))
	assert.Equal(t, "short1", YouTubeID("https://youtu.be/short1"))
	assert.Equal(t, "", YouTubeID("https://example.com/recipe"))
	assert.Equal(t, "", YouTubeID(""))
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{Response: aiResponse}
		c, _ := newTestClipper(t, gen)
		ts := pageServer(t, videoPage, nil)

		r, err := c.Extract(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Kimchi Stew", r.Name)
		assert.Equal(t, []string{"dinner", "lunch"}, r.MealTypes)
		assert.Equal(t, 2, r.Servings)
		assert.Equal(t, ts.URL, r.SourceURL)
		assert.Equal(t, "김치", r.IngredientsFor(recipe.Original)[0].Name)
		assert.Equal(t, []string{"Boil"}, r.InstructionsFor(recipe.Original))

		assert.Contains(t, gen.LastPrompt, "Ingredients: kimchi, pork")
		assert.Contains(t, gen.LastPrompt, "Easy Kimchi Stew")
	})

	t.Run("CachedByURL", func(t *testing.T) {
		gen := &MockTextGenerator{Response: aiResponse}
		var hits atomic.Int32
		c, docs := newTestClipper(t, gen)
		ts := pageServer(t, videoPage, &hits)

		_, err := c.Extract(ctx, ts.URL)
		require.NoError(t, err)
		_, err = c.Extract(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(1), gen.Calls.Load())
		assert.Equal(t, int32(1), hits.Load())

		// A fresh clipper over the same store reads the persisted cache.
		fresh := NewClipper(gen, docs, Options{})
		r, err := fresh.Extract(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Kimchi Stew", r.Name)
		assert.Equal(t, int32(1), gen.Calls.Load())
	})

	t.Run("UnusableCacheEntryIsRefetched", func(t *testing.T) {
		gen := &MockTextGenerator{Response: aiResponse}
		c, docs := newTestClipper(t, gen)
		ts := pageServer(t, videoPage, nil)
		stale := `{"` + ts.URL + `": {"name": "Stub", "ingredients": [], "instructions": []}}`
		require.NoError(t, docs.Put(ctx, storage.KeyExtractionCache, []byte(stale)))

		r, err := c.Extract(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Kimchi Stew", r.Name)
		assert.Equal(t, int32(1), gen.Calls.Load())
	})

	t.Run("ModelError", func(t *testing.T) {
		c, _ := newTestClipper(t, &MockTextGenerator{ShouldError: true})
		ts := pageServer(t, videoPage, nil)

		_, err := c.Extract(ctx, ts.URL)
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("NoRecipeInReply", func(t *testing.T) {
		c, _ := newTestClipper(t, &MockTextGenerator{Response: `{"name": "Nothing"}`})
		ts := pageServer(t, videoPage, nil)

		_, err := c.Extract(ctx, ts.URL)
		assert.ErrorIs(t, err, ErrNoRecipeFound)
	})

	t.Run("EmptyPage", func(t *testing.T) {
		gen := &MockTextGenerator{Response: aiResponse}
		c, _ := newTestClipper(t, gen)
		ts := pageServer(t, "<html><body></body></html>", nil)

		_, err := c.Extract(ctx, ts.URL)
		assert.ErrorIs(t, err, ErrNoRecipeFound)
		assert.Zero(t, gen.Calls.Load())
	})

	t.Run("FetchFailure", func(t *testing.T) {
		c, _ := newTestClipper(t, &MockTextGenerator{Response: aiResponse})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := c.Extract(ctx, ts.URL)
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("EmptyURL", func(t *testing.T) {
		c, _ := newTestClipper(t, &MockTextGenerator{})
		_, err := c.Extract(ctx, "  ")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})
}

func TestParseRecipeDefaults(t *testing.T) {
	r, err := parseRecipe(`{"ingredients": [{"name": "Egg", "quantity": 2, "unit": "개"}], "meal_type": "breakfast"}`, "Egg video", "https://youtu.be/x")
	require.NoError(t, err)
	assert.Equal(t, "Egg video", r.Name)
	assert.Equal(t, []string{"breakfast"}, r.MealTypes)
	assert.Equal(t, r.IngredientsFor(recipe.English), r.IngredientsFor(recipe.Original))
	assert.Empty(t, r.ID)
}
