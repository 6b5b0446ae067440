package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	hrest "notification-service/internal/handler/http"
	wshandler "notification-service/internal/handler/ws"
	"notification-service/internal/middleware"
)

// SetupRoutes configures the HTTP routes for the notification service
func SetupRoutes(
	r chi.Router,
	h *hrest.NotificationHandler,
	wsHandler *wshandler.WSHandler,
	jwtSecret string,
	rdb *redis.Client,
) chi.Router {
	// ---- Global Middleware ----
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RateLimit(rdb, 100, time.Minute, "global"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ============================================================
	// Notifications Routes (all require auth)
	// ============================================================
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSecret))

		// Notification CRUD
		r.Get("/", h.ListNotifications)
		r.Post("/", h.CreateNotification)
		r.Post("/bulk", h.CreateBulk)
		r.Post("/test", h.SendTest)
		r.Get("/types", h.ListTypes)
		r.Get("/stats", h.GetStats)
		r.Get("/unread/count", h.CountUnread)
		r.Patch("/read-all", h.MarkAllRead)
		r.Get("/{id}", h.GetNotification)
		r.Patch("/{id}/read", h.MarkRead)
		r.Delete("/{id}", h.DeleteNotification)

		// Preferences
		r.Get("/preferences", h.ListPreferences)
		r.Get("/preferences/{type}", h.GetPreference)
		r.Post("/preferences", h.UpsertPreference)
		r.Delete("/preferences", h.DeletePreferences)
		r.Post("/preferences/disable-all", h.DisableAllChannels)

		// Push tokens
		r.Post("/push-tokens", h.RegisterPushToken)

		// WebSocket endpoint
		r.Get("/ws", wsHandler.HandleNotifications)
	})
	return r
}
