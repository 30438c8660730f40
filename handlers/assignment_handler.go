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

type AssignmentHandler struct {
	service service.AssignmentService
}

func NewAssignmentHandler(service service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
	}
}

func (h *AssignmentHandler) AssignWeek(w http.ResponseWriter, r *http.Request) {
	var payload models.AssignWeekPayload
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}
	payload.ChainKpiID = r.PathValue("id")

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignment, err := h.service.AssignWeek(ctx, &payload, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Week assigned successfully", assignment, http.StatusOK)
}

func (h *AssignmentHandler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid assignment ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignment, err := h.service.GetByID(ctx, id)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Assignment retrieved successfully", assignment, http.StatusOK)
}

func (h *AssignmentHandler) ListAssignmentsByKPI(w http.ResponseWriter, r *http.Request) {
	kpiID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid KPI ID format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignments, err := h.service.ListByKPI(ctx, kpiID)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Assignments retrieved successfully", assignments, http.StatusOK)
}

func (h *AssignmentHandler) AcceptAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid assignment ID format", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignment, err := h.service.Accept(ctx, id, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Assignment accepted successfully", assignment, http.StatusOK)
}

func (h *AssignmentHandler) HandOverAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid assignment ID format", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignment, err := h.service.HandOver(ctx, id, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Assignment handed over successfully", assignment, http.StatusOK)
}

func (h *AssignmentHandler) SubmitDayResult(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid assignment ID format", http.StatusBadRequest)
		return
	}

	var payload models.DayResultPayload
	if err := utils.DecodeAndValidate(w, r, &payload); err != nil {
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assignment, err := h.service.SubmitResult(ctx, id, &payload, username)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Result submitted successfully", assignment, http.StatusOK)
}
