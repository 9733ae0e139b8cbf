package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"meal-planner/internal/planner"
)

// PlanService is the plan API used by the handlers.
type PlanService interface {
	Current(ctx context.Context) (*planner.WeeklyPlan, error)
	Generate(ctx context.Context, start *planner.Date) (*planner.WeeklyPlan, error)
	AssignRecipe(ctx context.Context, date planner.Date, slot planner.Slot, recipeID string) (*planner.WeeklyPlan, error)
	ClearSlot(ctx context.Context, date planner.Date, slot planner.Slot) (*planner.WeeklyPlan, error)
	ToggleSlotLock(ctx context.Context, date planner.Date, slot planner.Slot) (*planner.WeeklyPlan, error)
	SetAllLocked(ctx context.Context, locked bool) (*planner.WeeklyPlan, error)
	Today(ctx context.Context) (*planner.Day, error)
	History(ctx context.Context) ([]planner.HistoryEntry, error)
}

// GeneratePlanRequest asks for a new plan. An empty or malformed start date
// uses the current week.
type GeneratePlanRequest struct {
	StartDate string `json:"start_date"`
}

// SlotRequest addresses one meal slot.
type SlotRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	MealType string `json:"meal_type" validate:"required,oneof=breakfast lunch dinner"`
}

// AssignRequest places a recipe in a slot.
type AssignRequest struct {
	SlotRequest
	RecipeID string `json:"recipe_id" validate:"required"`
}

// PlanResponse wraps the plan so an absent plan encodes as null.
type PlanResponse struct {
	Plan *planner.WeeklyPlan `json:"plan"`
}

// TodayResponse carries today's meals, or null outside the planned week.
type TodayResponse struct {
	Day *planner.Day `json:"day"`
}

// HandleGetPlan returns the stored plan.
func HandleGetPlan(svc PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := svc.Current(r.Context())
		if err != nil {
			respondServiceError(w, r, "Get plan", err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Plan: plan})
	}
}

// HandleGeneratePlan assembles a plan, keeping locked slots.
func HandleGeneratePlan(svc PlanService, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GeneratePlanRequest
		// The body is optional.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		var start *planner.Date
		if req.StartDate != "" {
			// Malformed dates fall back to the current week.
			d, _ := planner.ParseDate(req.StartDate, now())
			start = &d
		}
		plan, err := svc.Generate(r.Context(), start)
		if err != nil {
			respondServiceError(w, r, "Generate plan", err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Plan: plan})
	}
}

func (req SlotRequest) parse() (planner.Date, planner.Slot, error) {
	date, err := planner.ParseDay(req.Date)
	if err != nil {
		return planner.Date{}, "", err
	}
	slot, err := planner.ParseSlot(req.MealType)
	if err != nil {
		return planner.Date{}, "", err
	}
	return date, slot, nil
}

// HandleAssign puts a recipe into a slot.
func HandleAssign(svc PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Assign meal"); err != nil {
			return
		}
		date, slot, err := req.parse()
		if err != nil {
			respondServiceError(w, r, "Assign meal", err)
			return
		}
		plan, err := svc.AssignRecipe(r.Context(), date, slot, req.RecipeID)
		if err != nil {
			respondServiceError(w, r, "Assign meal", err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Plan: plan})
	}
}

type slotAction func(ctx context.Context, date planner.Date, slot planner.Slot) (*planner.WeeklyPlan, error)

func handleSlot(action slotAction, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlotRequest
		if err := DecodeAndValidateRequest(r, w, &req, name); err != nil {
			return
		}
		date, slot, err := req.parse()
		if err != nil {
			respondServiceError(w, r, name, err)
			return
		}
		plan, err := action(r.Context(), date, slot)
		if err != nil {
			respondServiceError(w, r, name, err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Plan: plan})
	}
}

// HandleClear empties a slot.
func HandleClear(svc PlanService) http.HandlerFunc {
	return handleSlot(svc.ClearSlot, "Clear meal")
}

// HandleToggleLock flips the lock on a filled slot.
func HandleToggleLock(svc PlanService) http.HandlerFunc {
	return handleSlot(svc.ToggleSlotLock, "Toggle lock")
}

// HandleSetAllLocked locks or unlocks every filled slot.
func HandleSetAllLocked(svc PlanService, locked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := svc.SetAllLocked(r.Context(), locked)
		if err != nil {
			respondServiceError(w, r, "Set locks", err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Plan: plan})
	}
}

// HandleToday returns today's meals.
func HandleToday(svc PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := svc.Today(r.Context())
		if err != nil {
			respondServiceError(w, r, "Today", err)
			return
		}
		respondJSON(w, http.StatusOK, TodayResponse{Day: day})
	}
}

// HandleHistory lists previously generated plans.
func HandleHistory(svc PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.History(r.Context())
		if err != nil {
			respondServiceError(w, r, "History", err)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	}
}
