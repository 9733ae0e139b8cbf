package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"meal-planner/internal/clipper"
	"meal-planner/internal/logger"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs err and answers with the mapped status.
func respondServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(action+" failed", "error", err)
	} else {
		log.Warn(action+" rejected", "error", err)
	}
	respondError(w, status, msg)
}

// User-facing error messages
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgInvalidRequest      = "Invalid request body"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgNoRecipes           = "No recipes available. Add or import recipes first."
	ErrMsgDuplicateMeal       = "That recipe is already planned for another meal that day."
	ErrMsgRecipeNotFound      = "Recipe not found"
	ErrMsgEntryNotFound       = "Shopping entry not found"
	ErrMsgDayNotFound         = "That date is not part of the current plan."
	ErrMsgInvalidSlot         = "Meal type must be breakfast, lunch or dinner."
	ErrMsgEmptySlot           = "That meal slot is empty."
	ErrMsgInvalidDate         = "Invalid date, expected YYYY-MM-DD."
	ErrMsgInvalidEntry        = "A shopping entry needs a name."
	ErrMsgInvalidImport       = "Recipes must be a JSON object or a list of objects."
	ErrMsgNoRecipeText        = "No recipe text found at that link."
	ErrMsgExtractionFailed    = "Could not extract a recipe from that link. Please try again later."
	ErrMsgExtractorDisabled   = "Recipe extraction is not configured."
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	case errors.Is(err, planner.ErrNoRecipesAvailable):
		return http.StatusUnprocessableEntity, ErrMsgNoRecipes
	case errors.Is(err, planner.ErrDuplicateAssignment):
		return http.StatusConflict, ErrMsgDuplicateMeal
	case errors.Is(err, recipe.ErrRecipeNotFound):
		return http.StatusNotFound, ErrMsgRecipeNotFound
	case errors.Is(err, shopping.ErrEntryNotFound):
		return http.StatusNotFound, ErrMsgEntryNotFound
	case errors.Is(err, planner.ErrDayNotFound):
		return http.StatusBadRequest, ErrMsgDayNotFound
	case errors.Is(err, planner.ErrInvalidSlot):
		return http.StatusBadRequest, ErrMsgInvalidSlot
	case errors.Is(err, planner.ErrEmptySlot):
		return http.StatusBadRequest, ErrMsgEmptySlot
	case errors.Is(err, planner.ErrInvalidDate):
		return http.StatusBadRequest, ErrMsgInvalidDate
	case errors.Is(err, recipe.ErrInvalidImport):
		return http.StatusBadRequest, ErrMsgInvalidImport
	case errors.Is(err, shopping.ErrInvalidEntry):
		return http.StatusBadRequest, ErrMsgInvalidEntry
	case errors.Is(err, clipper.ErrNoRecipeFound):
		return http.StatusUnprocessableEntity, ErrMsgNoRecipeText
	case errors.Is(err, clipper.ErrExtractionFailed):
		return http.StatusBadGateway, ErrMsgExtractionFailed
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}
