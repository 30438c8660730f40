package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	middleware "chainkpi/middlewares"
	service "chainkpi/services"
	"chainkpi/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompletionHandler struct {
	service service.CompletionService
}

func NewCompletionHandler(service service.CompletionService) *CompletionHandler {
	return &CompletionHandler{
		service: service,
	}
}

func (h *CompletionHandler) ToggleWeekCompletion(w http.ResponseWriter, r *http.Request) {
	kpiID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	weekIndex, err := strconv.Atoi(r.PathValue("weekIndex"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid week index", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.service.ToggleWeek(ctx, kpiID, weekIndex, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Week completion toggled", result, http.StatusOK)
}

func (h *CompletionHandler) ToggleDayCompletion(w http.ResponseWriter, r *http.Request) {
	kpiID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.service.ToggleDay(ctx, kpiID, r.PathValue("date"), username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Day completion toggled", result, http.StatusOK)
}

func (h *CompletionHandler) ListCompletions(w http.ResponseWriter, r *http.Request) {
	kpiID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	completions, err := h.service.ListByKPI(ctx, kpiID)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Completions retrieved successfully", completions, http.StatusOK)
}
