package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"meal-planner/internal/recipe"
)

const maxImportBytes = 4 << 20

// RecipeService is the recipe library API used by the handlers.
type RecipeService interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
	Create(ctx context.Context, r recipe.Recipe) (*recipe.Recipe, error)
	Update(ctx context.Context, id string, r recipe.Recipe) (*recipe.Recipe, error)
	Import(ctx context.Context, raw []byte) ([]recipe.Recipe, error)
}

// Extractor turns a recipe link into a draft.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (*recipe.Recipe, error)
}

// RecipeRequest creates or replaces a recipe. Ingredients and instructions
// may be given as lists or as text with one entry per line.
type RecipeRequest struct {
	Name                     string              `json:"name" validate:"required,max=200"`
	MealTypes                []string            `json:"meal_types" validate:"dive,oneof=breakfast lunch dinner"`
	Servings                 int                 `json:"servings" validate:"min=0,max=100"`
	Ingredients              []recipe.Ingredient `json:"ingredients"`
	IngredientsOriginal      []recipe.Ingredient `json:"ingredients_original"`
	IngredientsText          string              `json:"ingredients_text"`
	IngredientsOriginalText  string              `json:"ingredients_original_text"`
	Instructions             []string            `json:"instructions"`
	InstructionsOriginal     []string            `json:"instructions_original"`
	InstructionsText         string              `json:"instructions_text"`
	InstructionsOriginalText string              `json:"instructions_original_text"`
	SourceURL                string              `json:"source_url" validate:"omitempty,url"`
}

func (req RecipeRequest) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		Name:      strings.TrimSpace(req.Name),
		MealTypes: req.MealTypes,
		Servings:  req.Servings,
		SourceURL: strings.TrimSpace(req.SourceURL),
	}
	if len(r.MealTypes) == 0 {
		r.MealTypes = []string{"dinner"}
	}

	ings := req.Ingredients
	if req.IngredientsText != "" {
		ings = recipe.ParseIngredientLines(req.IngredientsText)
	}
	orig := req.IngredientsOriginal
	if req.IngredientsOriginalText != "" {
		orig = recipe.ParseIngredientLines(req.IngredientsOriginalText)
	}
	steps := req.Instructions
	if req.InstructionsText != "" {
		steps = recipe.ParseInstructionLines(req.InstructionsText)
	}
	origSteps := req.InstructionsOriginal
	if req.InstructionsOriginalText != "" {
		origSteps = recipe.ParseInstructionLines(req.InstructionsOriginalText)
	}

	r.SetIngredients(recipe.English, ings)
	r.SetInstructions(recipe.English, steps)
	if len(orig) > 0 {
		r.SetIngredients(recipe.Original, orig)
	}
	if len(origSteps) > 0 {
		r.SetInstructions(recipe.Original, origSteps)
	}
	return r
}

// ExtractRequest asks for a draft from a link. Save stores the draft.
type ExtractRequest struct {
	SourceURL string `json:"source_url" validate:"required,url"`
	Save      bool   `json:"save"`
}

// ImportResponse lists the recipes an import created.
type ImportResponse struct {
	Imported int             `json:"imported"`
	Recipes  []recipe.Recipe `json:"recipes"`
}

// HandleListRecipes returns the library, optionally filtered by ?meal_type=.
func HandleListRecipes(svc RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipes, err := svc.List(r.Context())
		if err != nil {
			respondServiceError(w, r, "List recipes", err)
			return
		}
		if mealType := strings.TrimSpace(r.URL.Query().Get("meal_type")); mealType != "" {
			recipes = recipe.FilterByMealType(recipes, strings.ToLower(mealType))
		}
		if recipes == nil {
			recipes = []recipe.Recipe{}
		}
		respondJSON(w, http.StatusOK, recipes)
	}
}

// HandleGetRecipe returns one recipe.
func HandleGetRecipe(svc RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, "Get recipe", err)
			return
		}
		if rec == nil {
			respondError(w, http.StatusNotFound, ErrMsgRecipeNotFound)
			return
		}
		respondJSON(w, http.StatusOK, rec)
	}
}

// HandleCreateRecipe adds a recipe to the library.
func HandleCreateRecipe(svc RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecipeRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Create recipe"); err != nil {
			return
		}
		rec, err := svc.Create(r.Context(), req.toRecipe())
		if err != nil {
			respondServiceError(w, r, "Create recipe", err)
			return
		}
		respondJSON(w, http.StatusCreated, rec)
	}
}

// HandleUpdateRecipe replaces a recipe, keeping its id.
func HandleUpdateRecipe(svc RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecipeRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Update recipe"); err != nil {
			return
		}
		rec, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req.toRecipe())
		if err != nil {
			respondServiceError(w, r, "Update recipe", err)
			return
		}
		respondJSON(w, http.StatusOK, rec)
	}
}

// HandleImportRecipes stores a recipe object or a list of them.
func HandleImportRecipes(svc RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		created, err := svc.Import(r.Context(), raw)
		if err != nil {
			respondServiceError(w, r, "Import recipes", err)
			return
		}
		respondJSON(w, http.StatusCreated, ImportResponse{Imported: len(created), Recipes: created})
	}
}

// HandleExtractRecipe drafts a recipe from a link. A nil extractor answers
// 503.
func HandleExtractRecipe(ex Extractor, recipes RecipeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ex == nil {
			respondError(w, http.StatusServiceUnavailable, ErrMsgExtractorDisabled)
			return
		}
		var req ExtractRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Extract recipe"); err != nil {
			return
		}
		draft, err := ex.Extract(r.Context(), req.SourceURL)
		if err != nil {
			respondServiceError(w, r, "Extract recipe", err)
			return
		}
		if !req.Save {
			respondJSON(w, http.StatusOK, draft)
			return
		}
		saved, err := recipes.Create(r.Context(), *draft)
		if err != nil {
			respondServiceError(w, r, "Save extracted recipe", err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}
