package handlers

import (
	"context"
	"net/http"
	"time"

	middleware "chainkpi/middlewares"
	service "chainkpi/services"
	"chainkpi/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())
	role := middleware.GetRoleFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	notifications, err := h.service.ListForActor(ctx, username, role)
	if err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Notifications retrieved successfully", notifications, http.StatusOK)
}

func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid notification ID format", http.StatusBadRequest)
		return
	}

	username := middleware.GetUsernameFromContext(r.Context())
	role := middleware.GetRoleFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.MarkRead(ctx, id, username, role); err != nil {
		utils.HandleDomainError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "Notification marked as read", http.StatusOK)
}
