package acceptance_tests

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/llm"
	"meal-planner/internal/shared"
)

// --- Mock LLM Client ---
type mockLLMClient struct {
	generateContentCalls int
}

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.generateContentCalls++
	return llm.ContentResponse{
		Content: `{
			"name": "Egg Fried Rice",
			"meal_types": ["lunch", "dinner"],
			"servings": "2",
			"ingredients": [{"name": "Rice", "quantity": 300, "unit": "g"}, {"name": "Egg", "quantity": 2, "unit": "pcs"}],
			"ingredients_original": [{"name": "밥", "quantity": 300, "unit": "그램"}, {"name": "계란", "quantity": 2, "unit": "개"}],
			"instructions": ["Scramble the eggs", "Fry the rice"]
		}`,
		Usage: shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "mock"},
	}, nil
}

const recipePage = `<html><head>
<meta property="og:title" content="Egg Fried Rice in 5 minutes">
<meta name="description" content="Rice 300g, 2 eggs. Scramble, then fry.">
</head><body></body></html>`

func fixedNow() time.Time {
	return time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
}

func openApp(t *testing.T, cfg *config.Config, gen llm.TextGenerator) (*app.App, func()) {
	t.Helper()
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	a := app.NewWithStore(cfg, database.NewDocumentStore(db.SQL), gen, fixedNow)
	return a, func() { db.Close() }
}

// --- Acceptance Test ---
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	seed := uint64(11)
	cfg := &config.Config{
		DataDir:             tempDir,
		StorageBackend:      config.BackendSQLite,
		DatabasePath:        filepath.Join(tempDir, "meal-planner.db"),
		ExtractionTimeout:   5 * time.Second,
		ExtractionCacheSize: 16,
		ExtractionCacheTTL:  time.Hour,
		PlanSeed:            &seed,
	}

	pageHits := 0
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageHits++
		_, _ = w.Write([]byte(recipePage))
	}))
	defer page.Close()

	llmClient := &mockLLMClient{}
	application, closeDB := openApp(t, cfg, llmClient)

	// --- Step 1: Extract and save ---
	t.Log("--- Step 1: Extracting recipe ---")
	var out bytes.Buffer
	if err := application.ExtractRecipe(ctx, &out, page.URL, true); err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}
	if !strings.Contains(out.String(), "Saved as egg-fried-rice") {
		t.Errorf("Expected recipe to be saved, got:\n%s", out.String())
	}
	if llmClient.generateContentCalls != 1 {
		t.Errorf("Expected 1 call to LLM for extraction, got %d", llmClient.generateContentCalls)
	}

	// --- Step 2: Planning ---
	t.Log("--- Step 2: Generating Meal Plan ---")
	out.Reset()
	if err := application.PlanWeek(ctx, &out, "2024-03-04"); err != nil {
		t.Fatalf("Meal planning failed: %v", err)
	}
	if !strings.Contains(out.String(), "Egg Fried Rice") {
		t.Errorf("Expected the extracted recipe in the plan, got:\n%s", out.String())
	}

	// --- Step 3: Shopping list in the original language ---
	out.Reset()
	if err := application.PrintShoppingList(ctx, &out, "original"); err != nil {
		t.Fatalf("Shopping list failed: %v", err)
	}
	if !strings.Contains(out.String(), "계란") {
		t.Errorf("Expected original-language ingredients, got:\n%s", out.String())
	}
	closeDB()

	// --- Step 4: Restart and extract again ---
	t.Log("--- Step 4: Extraction cache survives a restart ---")
	restarted, closeDB := openApp(t, cfg, llmClient)
	defer closeDB()

	out.Reset()
	if err := restarted.ExtractRecipe(ctx, &out, page.URL, false); err != nil {
		t.Fatalf("Cached extraction failed: %v", err)
	}
	if llmClient.generateContentCalls != 1 {
		t.Errorf("Expected the persisted cache to be used, got %d LLM calls", llmClient.generateContentCalls)
	}
	if pageHits != 1 {
		t.Errorf("Expected the page to be fetched once, got %d", pageHits)
	}

	out.Reset()
	if err := restarted.PrintToday(ctx, &out); err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if !strings.Contains(out.String(), "Wednesday, Mar 06") {
		t.Errorf("Expected the stored plan to survive a restart, got:\n%s", out.String())
	}
}
