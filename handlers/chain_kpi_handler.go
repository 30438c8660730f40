package handlers

import (
	"context"
	"net/http"
	"time"

	middleware "chainkpi/middlewares"
	"chainkpi/models"
	service "chainkpi/services"
	"chainkpi/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChainKPIHandler struct {
	service service.ChainKPIService
}

func NewChainKPIHandler(service service.ChainKPIService) *ChainKPIHandler {
	return &ChainKPIHandler{
		service: service,
	}
}

func (h *ChainKPIHandler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	chainID, err := primitive.ObjectIDFromHex(r.PathValue("chainId"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid chain ID format", http.StatusBadRequest)
		return
	}

	var payload models.ChainKpiPayload
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpi, err := h.service.CreateKPI(ctx, chainID, &payload, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "KPI created successfully", kpi, http.StatusCreated)
}

func (h *ChainKPIHandler) GetKPIByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpi, err := h.service.GetKPIByID(ctx, id)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "KPI retrieved successfully", kpi, http.StatusOK)
}

func (h *ChainKPIHandler) ListKPIsByChain(w http.ResponseWriter, r *http.Request) {
	chainID, err := primitive.ObjectIDFromHex(r.PathValue("chainId"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid chain ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpis, err := h.service.ListByChain(ctx, chainID)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "KPIs retrieved successfully", kpis, http.StatusOK)
}

func (h *ChainKPIHandler) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	var payload models.KpiMetaPayload
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpi, err := h.service.UpdateMeta(ctx, id, &payload, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "KPI updated successfully", kpi, http.StatusOK)
}

func (h *ChainKPIHandler) ReplaceWeeks(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	var payload struct {
		WeekBreakdown []models.WeekPayload `json:"week_breakdown" validate:"required,min=1"`
	}
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpi, err := h.service.ReplaceWeeks(ctx, id, payload.WeekBreakdown, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Week breakdown replaced successfully", kpi, http.StatusOK)
}

func (h *ChainKPIHandler) ReplaceDays(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	var payload struct {
		Weeks []models.WeekDaysPayload `json:"weeks" validate:"required,min=1,dive"`
	}
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	kpi, err := h.service.ReplaceDays(ctx, id, payload.Weeks, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Day entries replaced successfully", kpi, http.StatusOK)
}

func (h *ChainKPIHandler) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.DeleteKPI(ctx, id, username); err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "KPI deleted successfully", http.StatusOK)
}

func (h *ChainKPIHandler) GetChainKpiStats(w http.ResponseWriter, r *http.Request) {
	chainID, err := primitive.ObjectIDFromHex(r.PathValue("chainId"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid chain ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	stats, err := h.service.GetChainKpiStats(ctx, chainID)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Chain KPI statistics retrieved successfully", stats, http.StatusOK)
}
