package server

import (
	"net/http"

	"meal-planner/internal/config"
	"meal-planner/internal/storage"
)

// HandleGetConfig returns the household settings.
func HandleGetConfig(docs storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := config.LoadHousehold(r.Context(), docs)
		if err != nil {
			respondServiceError(w, r, "Get config", err)
			return
		}
		respondJSON(w, http.StatusOK, h)
	}
}

// HandleUpdateConfig replaces the household settings. Fields left out of the
// body keep their defaults.
func HandleUpdateConfig(docs storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := config.DefaultHousehold()
		if err := DecodeAndValidateRequest(r, w, &h, "Update config"); err != nil {
			return
		}
		if err := config.SaveHousehold(r.Context(), docs, h); err != nil {
			respondServiceError(w, r, "Update config", err)
			return
		}
		respondJSON(w, http.StatusOK, h)
	}
}
