package server

import (
	"context"
	"net/http"

	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// ShoppingService is the shopping list API used by the handlers.
type ShoppingService interface {
	View(ctx context.Context, lang recipe.Language) (*shopping.View, error)
	Add(ctx context.Context, key, name, unit, quantity string, lang recipe.Language) error
	AddManual(ctx context.Context, name, unit, quantity string, lang recipe.Language) (string, error)
	UpdateQuantity(ctx context.Context, key, quantity string) error
	Remove(ctx context.Context, key string) error
}

// AddItemRequest puts a computed item on the list.
type AddItemRequest struct {
	Key      string `json:"key" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
	Lang     string `json:"lang"`
}

// ManualItemRequest adds a line no recipe backs.
type ManualItemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
	Lang     string `json:"lang"`
}

// UpdateItemRequest changes the quantity of an entry.
type UpdateItemRequest struct {
	Key      string `json:"key" validate:"required"`
	Quantity string `json:"quantity"`
}

// RemoveItemRequest removes an entry.
type RemoveItemRequest struct {
	Key string `json:"key" validate:"required"`
}

// ManualItemResponse returns the key assigned to a manual entry.
type ManualItemResponse struct {
	Key string `json:"key"`
}

// HandleShoppingList reconciles and returns the list for ?lang=.
func HandleShoppingList(svc ShoppingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := recipe.ParseLanguage(r.URL.Query().Get("lang"))
		view, err := svc.View(r.Context(), lang)
		if err != nil {
			respondServiceError(w, r, "Shopping list", err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

// HandleAddItem stores a computed item.
func HandleAddItem(svc ShoppingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddItemRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Add shopping item"); err != nil {
			return
		}
		if err := svc.Add(r.Context(), req.Key, req.Name, req.Unit, req.Quantity, recipe.ParseLanguage(req.Lang)); err != nil {
			respondServiceError(w, r, "Add shopping item", err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item added"})
	}
}

// HandleAddManualItem stores a manual line.
func HandleAddManualItem(svc ShoppingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualItemRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Add manual item"); err != nil {
			return
		}
		key, err := svc.AddManual(r.Context(), req.Name, req.Unit, req.Quantity, recipe.ParseLanguage(req.Lang))
		if err != nil {
			respondServiceError(w, r, "Add manual item", err)
			return
		}
		respondJSON(w, http.StatusCreated, ManualItemResponse{Key: key})
	}
}

// HandleUpdateItem changes a quantity.
func HandleUpdateItem(svc ShoppingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateItemRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Update shopping item"); err != nil {
			return
		}
		if err := svc.UpdateQuantity(r.Context(), req.Key, req.Quantity); err != nil {
			respondServiceError(w, r, "Update shopping item", err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item updated"})
	}
}

// HandleRemoveItem deletes an entry. Unknown keys succeed.
func HandleRemoveItem(svc ShoppingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveItemRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Remove shopping item"); err != nil {
			return
		}
		if err := svc.Remove(r.Context(), req.Key); err != nil {
			respondServiceError(w, r, "Remove shopping item", err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item removed"})
	}
}
