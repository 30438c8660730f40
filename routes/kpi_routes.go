package routes

import (
	"net/http"

	"chainkpi/handlers"
	"chainkpi/middlewares"
)

func SetupRoutes(kpiHandler *handlers.ChainKPIHandler, assignmentHandler *handlers.AssignmentHandler, completionHandler *handlers.CompletionHandler, notificationHandler *handlers.NotificationHandler, jwtSecret string) *http.ServeMux {
	mux := http.NewServeMux()

	// Apply JWT middleware to all routes
	jwtMiddleware := middlewares.JWTMiddleware(jwtSecret)

	// Chain KPI routes with JWT protection
	mux.Handle("POST /api/chains/{chainId}/kpis", jwtMiddleware(http.HandlerFunc(kpiHandler.CreateKPI)))
	mux.Handle("GET /api/chains/{chainId}/kpis", jwtMiddleware(http.HandlerFunc(kpiHandler.ListKPIsByChain)))
	mux.Handle("GET /api/chains/{chainId}/kpis/stats", jwtMiddleware(http.HandlerFunc(kpiHandler.GetChainKpiStats)))
	mux.Handle("GET /api/kpis/{id}", jwtMiddleware(http.HandlerFunc(kpiHandler.GetKPIByID)))
	mux.Handle("PUT /api/kpis/{id}", jwtMiddleware(http.HandlerFunc(kpiHandler.UpdateKPI)))
	mux.Handle("PUT /api/kpis/{id}/weeks", jwtMiddleware(http.HandlerFunc(kpiHandler.ReplaceWeeks)))
	mux.Handle("PUT /api/kpis/{id}/days", jwtMiddleware(http.HandlerFunc(kpiHandler.ReplaceDays)))
	mux.Handle("DELETE /api/kpis/{id}", jwtMiddleware(http.HandlerFunc(kpiHandler.DeleteKPI)))

	// Assignment routes
	mux.Handle("POST /api/kpis/{id}/assign-week", jwtMiddleware(http.HandlerFunc(assignmentHandler.AssignWeek)))
	mux.Handle("GET /api/kpis/{id}/assignments", jwtMiddleware(http.HandlerFunc(assignmentHandler.ListAssignmentsByKPI)))
	mux.Handle("GET /api/assignments/{id}", jwtMiddleware(http.HandlerFunc(assignmentHandler.GetAssignmentByID)))
	mux.Handle("POST /api/assignments/{id}/accept", jwtMiddleware(http.HandlerFunc(assignmentHandler.AcceptAssignment)))
	mux.Handle("POST /api/assignments/{id}/hand-over", jwtMiddleware(http.HandlerFunc(assignmentHandler.HandOverAssignment)))
	mux.Handle("POST /api/assignments/{id}/day-result", jwtMiddleware(http.HandlerFunc(assignmentHandler.SubmitDayResult)))

	// Completion ledger routes
	mux.Handle("POST /api/kpis/{id}/complete-week/{weekIndex}", jwtMiddleware(http.HandlerFunc(completionHandler.ToggleWeekCompletion)))
	mux.Handle("POST /api/kpis/{id}/complete-day/{date}", jwtMiddleware(http.HandlerFunc(completionHandler.ToggleDayCompletion)))
	mux.Handle("GET /api/kpis/{id}/completions", jwtMiddleware(http.HandlerFunc(completionHandler.ListCompletions)))

	// Notification routes
	mux.Handle("GET /api/notifications", jwtMiddleware(http.HandlerFunc(notificationHandler.ListNotifications)))
	mux.Handle("POST /api/notifications/{id}/read", jwtMiddleware(http.HandlerFunc(notificationHandler.MarkNotificationRead)))

	return mux
}
