package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"notification-service/internal/domain"
	"notification-service/internal/middleware"
	"notification-service/internal/repository"
	"notification-service/internal/usecase"
	"notification-service/pkg/response"
	"notification-service/pkg/xerrors"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

type notificationView struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	Type         string              `json:"type"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	Priority     domain.Priority     `json:"priority"`
	ScheduledAt  *time.Time          `json:"scheduled_at,omitempty"`
	Sent         bool                `json:"sent"`
	SentAt       *time.Time          `json:"sent_at,omitempty"`
	Delivered    bool                `json:"delivered"`
	ChannelState domain.ChannelState `json:"channel_state,omitempty"`
	Read         bool                `json:"read"`
	ReadAt       *time.Time          `json:"read_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func toView(n *domain.Notification) notificationView {
	return notificationView{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		Priority:     n.Priority,
		ScheduledAt:  n.ScheduledAt,
		Sent:         n.Sent,
		SentAt:       n.SentAt,
		Delivered:    n.Delivered,
		ChannelState: n.ChannelState,
		Read:         n.Read(),
		ReadAt:       n.ReadAt,
		CreatedAt:    n.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, xerrors.ErrUserIDRequired),
		errors.Is(err, xerrors.ErrTitleRequired),
		errors.Is(err, xerrors.ErrMessageRequired),
		errors.Is(err, xerrors.ErrEmptyRecipientSet),
		errors.Is(err, xerrors.ErrInvalidPriority),
		errors.Is(err, xerrors.ErrInvalidQuietHours),
		errors.Is(err, xerrors.ErrTokenRequired),
		errors.Is(err, xerrors.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// ----------------------
// Notification Handlers
// ----------------------

type createRequest struct {
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Priority    domain.Priority `json:"priority"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
}

func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.UserID(r.Context())
	}

	n, err := h.uc.CreateNotification(r.Context(), req.UserID, req.Type, req.Title, req.Message, req.Priority, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, toView(n))
}

type createBulkRequest struct {
	UserIDs     []string        `json:"user_ids"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Priority    domain.Priority `json:"priority"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
}

func (h *NotificationHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	var req createBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	result, err := h.uc.CreateBulk(r.Context(), req.UserIDs, req.Type, req.Title, req.Message, req.Priority, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(w, status, result)
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	filter := repository.ListFilter{
		Type:     r.URL.Query().Get("type"),
		Priority: domain.Priority(r.URL.Query().Get("priority")),
	}
	if v := r.URL.Query().Get("is_read"); v != "" {
		isRead := v == "true"
		filter.IsRead = &isRead
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	items, err := h.uc.ListNotifications(r.Context(), userID, filter, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]notificationView, 0, len(items))
	for _, n := range items {
		views = append(views, toView(n))
	}
	response.JSON(w, http.StatusOK, views)
}

func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	n, err := h.uc.GetNotification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if n.UserID != userID {
		response.Error(w, http.StatusNotFound, "not found")
		return
	}
	response.JSON(w, http.StatusOK, toView(n))
}

func (h *NotificationHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	count, err := h.uc.CountUnread(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	recordID := chi.URLParam(r, "id")

	n, err := h.uc.GetNotification(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	if n.UserID != userID {
		response.Error(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.uc.MarkRead(r.Context(), recordID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	updated, err := h.uc.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	recordID := chi.URLParam(r, "id")

	n, err := h.uc.GetNotification(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	if n.UserID != userID {
		response.Error(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.uc.DeleteNotification(r.Context(), recordID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	stats, err := h.uc.GetStats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func (h *NotificationHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string][]string{"types": h.uc.SupportedTypes()})
}

type sendTestRequest struct {
	Type string `json:"type"`
}

func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}
	n, err := h.uc.SendTest(r.Context(), userID, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, toView(n))
}

// ----------------------
// Preference Handlers
// ----------------------

type preferenceRequest struct {
	Type         string `json:"type"`
	EmailEnabled bool   `json:"email_enabled"`
	PushEnabled  bool   `json:"push_enabled"`
	SMSEnabled   bool   `json:"sms_enabled"`
	InAppEnabled bool   `json:"inapp_enabled"`
	QuietStart   string `json:"quiet_start"`
	QuietEnd     string `json:"quiet_end"`
}

func (h *NotificationHandler) UpsertPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	pref, err := h.uc.UpsertPreference(r.Context(), &domain.NotificationPreference{
		UserID:       middleware.UserID(r.Context()),
		Type:         req.Type,
		EmailEnabled: req.EmailEnabled,
		PushEnabled:  req.PushEnabled,
		SMSEnabled:   req.SMSEnabled,
		InAppEnabled: req.InAppEnabled,
		QuietStart:   req.QuietStart,
		QuietEnd:     req.QuietEnd,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pref)
}

// GetPreference returns the stored preference for one type, or the
// system default when none exists.
func (h *NotificationHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	pref, err := h.uc.GetPreference(r.Context(), userID, chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pref)
}

func (h *NotificationHandler) ListPreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	prefs, err := h.uc.ListPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, prefs)
}

func (h *NotificationHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if err := h.uc.DeletePreferences(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) DisableAllChannels(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if err := h.uc.DisableAllChannels(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------
// Push token Handlers
// ----------------------

type pushTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

func (h *NotificationHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}
	token, err := h.uc.RegisterPushToken(r.Context(), middleware.UserID(r.Context()), req.Token, req.DeviceType)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, token)
}
