package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// --- Fakes ---

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type fakePlans struct {
	plan      *planner.WeeklyPlan
	err       error
	lastStart *planner.Date
}

func (f *fakePlans) Current(ctx context.Context) (*planner.WeeklyPlan, error) { return f.plan, f.err }

func (f *fakePlans) Generate(ctx context.Context, start *planner.Date) (*planner.WeeklyPlan, error) {
	f.lastStart = start
	return f.plan, f.err
}

func (f *fakePlans) Today(ctx context.Context) (*planner.Day, error) {
	if f.plan == nil {
		return nil, f.err
	}
	return &f.plan.Days[2], f.err
}

type fakeShopping struct {
	view *shopping.View
	lang recipe.Language
}

func (f *fakeShopping) View(ctx context.Context, lang recipe.Language) (*shopping.View, error) {
	f.lang = lang
	return f.view, nil
}

type fakeRecipes struct{ saved []recipe.Recipe }

func (f *fakeRecipes) Create(ctx context.Context, r recipe.Recipe) (*recipe.Recipe, error) {
	r.ID = recipe.Slugify(r.Name)
	f.saved = append(f.saved, r)
	return &r, nil
}

type fakeExtractor struct{ err error }

func (f fakeExtractor) Extract(ctx context.Context, sourceURL string) (*recipe.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := recipe.Recipe{Name: "Kimchi_Stew", MealTypes: []string{"dinner"}, SourceURL: sourceURL}
	r.SetIngredients(recipe.English, []recipe.Ingredient{{Name: "Kimchi", Quantity: 300, Unit: "g"}})
	return &r, nil
}

// --- Helpers ---

const userID = int64(42)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 6, 18, 30, 0, 0, time.UTC)
}

func testPlan() *planner.WeeklyPlan {
	plan := planner.NewWeek(planner.WeekStart(fixedNow()))
	stew := recipe.Recipe{ID: "kimchi-stew", Name: "Kimchi Stew", MealTypes: []string{"dinner"}}
	wed := plan.Days[2].Date
	if err := planner.Assign(plan, wed, planner.Dinner, stew); err != nil {
		panic(err)
	}
	plan.Days[2].Meals[planner.Dinner].Locked = true
	return plan
}

func command(text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: 7},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

type testBot struct {
	bot      *Bot
	api      *fakeSender
	plans    *fakePlans
	shopping *fakeShopping
	recipes  *fakeRecipes
}

func newTestBot(t *testing.T, ex Extractor) testBot {
	t.Helper()
	tb := testBot{
		api:      &fakeSender{},
		plans:    &fakePlans{plan: testPlan()},
		shopping: &fakeShopping{view: &shopping.View{}},
		recipes:  &fakeRecipes{},
	}
	tb.bot = newBot(tb.api, Deps{
		Plans:     tb.plans,
		Shopping:  tb.shopping,
		Recipes:   tb.recipes,
		Extractor: ex,
		DataDir:   t.TempDir(),
		Now:       fixedNow,
	}, []int64{userID})
	return tb
}

// --- Tests ---

func TestUnauthorizedUsersAreIgnored(t *testing.T) {
	tb := newTestBot(t, nil)
	msg := command("/today")
	msg.From.ID = 999

	tb.bot.HandleUpdate(tgbotapi.Update{Message: msg})
	assert.Empty(t, tb.api.texts())
}

func TestCommands(t *testing.T) {
	t.Run("Today", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/today")})

		out := tb.api.last()
		assert.Contains(t, out, "*Wednesday, Mar 06*")
		assert.Contains(t, out, "Dinner: Kimchi Stew 🔒")
		assert.Contains(t, out, "Breakfast: _empty_")
	})

	t.Run("TodayWithoutPlan", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.plans.plan = nil
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/today")})
		assert.Contains(t, tb.api.last(), "Nothing planned for today")
	})

	t.Run("Plan", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/plan")})

		out := tb.api.last()
		assert.Contains(t, out, "*Week of 2024-03-04*")
		assert.Equal(t, 7, strings.Count(out, "Dinner:"))
	})

	t.Run("GenerateWithDate", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/generate 2024-03-13")})

		require.NotNil(t, tb.plans.lastStart)
		assert.Equal(t, "2024-03-11", tb.plans.lastStart.String())
		assert.Contains(t, tb.api.last(), "Week of")
	})

	t.Run("GenerateError", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.plans.err = planner.ErrNoRecipesAvailable
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/generate")})

		assert.Nil(t, tb.plans.lastStart)
		assert.Contains(t, tb.api.last(), "no recipes available")
	})

	t.Run("Shopping", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.shopping.view = &shopping.View{
			Items:   []shopping.DisplayItem{{Key: "k1", Name: "Kimchi", Unit: "g", Quantity: "1200"}},
			Pending: []shopping.LineItem{{Key: "k2", Name: "Milk", Unit: shopping.MixedUnit, Quantity: 3}},
		}
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/shopping original")})

		out := tb.api.last()
		assert.Equal(t, recipe.Original, tb.shopping.lang)
		assert.Contains(t, out, "• Kimchi 1200 g")
		assert.Contains(t, out, "*Not on the list yet*")
		assert.Contains(t, out, "• Milk 3 (mixed units)")
	})

	t.Run("Help", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/start")})
		assert.Equal(t, helpText, tb.api.last())
	})

	t.Run("Health", func(t *testing.T) {
		tb := newTestBot(t, nil)
		tb.bot.HandleUpdate(tgbotapi.Update{Message: command("/health")})
		assert.Contains(t, tb.api.last(), "Goroutines")
	})
}

func TestImportLink(t *testing.T) {
	t.Run("Saves", func(t *testing.T) {
		tb := newTestBot(t, fakeExtractor{})
		msg := &tgbotapi.Message{From: &tgbotapi.User{ID: userID}, Chat: &tgbotapi.Chat{ID: 7}, Text: "https://youtu.be/abc please"}
		tb.bot.HandleUpdate(tgbotapi.Update{Message: msg})

		require.Len(t, tb.recipes.saved, 1)
		assert.Equal(t, "https://youtu.be/abc", tb.recipes.saved[0].SourceURL)
		texts := tb.api.texts()
		require.Len(t, texts, 2)
		assert.Contains(t, texts[0], "Clipping recipe")
		assert.Contains(t, texts[1], `Kimchi\_Stew`)
	})

	t.Run("Failure", func(t *testing.T) {
		tb := newTestBot(t, fakeExtractor{err: errors.New("no recipe text found")})
		msg := &tgbotapi.Message{From: &tgbotapi.User{ID: userID}, Chat: &tgbotapi.Chat{ID: 7}, Text: "https://example.com"}
		tb.bot.HandleUpdate(tgbotapi.Update{Message: msg})

		assert.Empty(t, tb.recipes.saved)
		assert.Contains(t, tb.api.last(), "Error clipping recipe")
	})

	t.Run("Disabled", func(t *testing.T) {
		tb := newTestBot(t, nil)
		msg := &tgbotapi.Message{From: &tgbotapi.User{ID: userID}, Chat: &tgbotapi.Chat{ID: 7}, Text: "https://example.com"}
		tb.bot.HandleUpdate(tgbotapi.Update{Message: msg})
		assert.Contains(t, tb.api.last(), "not configured")
	})
}

func TestCallbackNextWeek(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.bot.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 7}},
		Data:    callbackNextWeek,
	}})

	require.NotNil(t, tb.plans.lastStart)
	assert.Equal(t, "2024-03-11", tb.plans.lastStart.String())
	assert.Len(t, tb.api.requests, 1)
	require.Len(t, tb.api.sent, 1)
	edit, ok := tb.api.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 5, edit.MessageID)
}

func TestWebhookRejectsGarbage(t *testing.T) {
	tb := newTestBot(t, nil)
	mux := http.NewServeMux()
	tb.bot.RegisterHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())
}
