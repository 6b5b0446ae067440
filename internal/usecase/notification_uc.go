package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/internal/strategy"
	"notification-service/pkg/id"
	"notification-service/pkg/xerrors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationUsecase is the producer-facing surface of the engine.
// Producers only ever see storage failures; delivery failures are
// observable through the record's own state.
type NotificationUsecase struct {
	notifications repository.NotificationStore
	preferences   repository.PreferenceStore
	pushTokens    repository.PushTokenStore
	registry      *strategy.Registry
	ids           *id.Generator
}

func NewNotificationUsecase(store repository.Store, registry *strategy.Registry, ids *id.Generator) *NotificationUsecase {
	return &NotificationUsecase{
		notifications: store.Notifications(),
		preferences:   store.Preferences(),
		pushTokens:    store.PushTokens(),
		registry:      registry,
		ids:           ids,
	}
}

// -----------------------------
// Notifications
// -----------------------------

// CreateNotification persists a record for later dispatch by the
// scheduler. A nil scheduledAt means "deliver now". Priority may be
// empty; the type's strategy then decides it.
func (uc *NotificationUsecase) CreateNotification(ctx context.Context, userID, typeTag, title, message string, priority domain.Priority, scheduledAt *time.Time) (*domain.Notification, error) {
	if priority != "" && !priority.Valid() {
		return nil, xerrors.ErrInvalidPriority
	}

	n := &domain.Notification{
		ID:          uc.ids.Next(),
		UserID:      userID,
		Type:        domain.NormalizeType(typeTag),
		Title:       title,
		Message:     message,
		Priority:    priority,
		ScheduledAt: scheduledAt,
	}

	strat := uc.registry.Resolve(n.Type)
	if err := strat.Validate(n); err != nil {
		return nil, err
	}
	if n.Priority == "" {
		n.Priority = strat.DeterminePriority(n)
	}

	if err := uc.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	return n, nil
}

// CreateBulk fans one payload out to many recipients as independent
// records. Failures are reported per recipient and never roll back the
// records that were created.
func (uc *NotificationUsecase) CreateBulk(ctx context.Context, userIDs []string, typeTag, title, message string, priority domain.Priority, scheduledAt *time.Time) (*domain.BulkResult, error) {
	if len(userIDs) == 0 {
		return nil, xerrors.ErrEmptyRecipientSet
	}

	result := &domain.BulkResult{}
	for _, userID := range userIDs {
		n, err := uc.CreateNotification(ctx, userID, typeTag, title, message, priority, scheduledAt)
		if err != nil {
			log.Printf("[Usecase] bulk create failed for user %s: %v", userID, err)
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[userID] = err.Error()
			continue
		}
		result.CreatedIDs = append(result.CreatedIDs, n.ID)
	}
	return result, nil
}

func (uc *NotificationUsecase) GetNotification(ctx context.Context, recordID string) (*domain.Notification, error) {
	return uc.notifications.GetByID(ctx, recordID)
}

func (uc *NotificationUsecase) ListNotifications(ctx context.Context, userID string, f repository.ListFilter, page, size int) ([]*domain.Notification, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page < 0 {
		page = 0
	}
	return uc.notifications.ListByUser(ctx, userID, f, size, page*size)
}

func (uc *NotificationUsecase) DeleteNotification(ctx context.Context, recordID string) error {
	if recordID == "" {
		return xerrors.ErrInvalidInput
	}
	return uc.notifications.DeleteByID(ctx, recordID)
}

// MarkRead is idempotent: marking an already-read record succeeds and
// keeps the original read timestamp.
func (uc *NotificationUsecase) MarkRead(ctx context.Context, recordID string) error {
	if recordID == "" {
		return xerrors.ErrInvalidInput
	}
	return uc.notifications.MarkRead(ctx, recordID)
}

func (uc *NotificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, xerrors.ErrUserIDRequired
	}
	return uc.notifications.MarkAllRead(ctx, userID)
}

func (uc *NotificationUsecase) CountUnread(ctx context.Context, userID string) (int, error) {
	return uc.notifications.CountUnread(ctx, userID)
}

// GetStats summarizes a recipient's notification counts across all
// registered types.
func (uc *NotificationUsecase) GetStats(ctx context.Context, userID string) (*domain.Stats, error) {
	total, err := uc.notifications.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := uc.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int)
	for _, tag := range uc.registry.SupportedTypes() {
		count, err := uc.notifications.CountByUserAndType(ctx, userID, tag)
		if err != nil {
			return nil, err
		}
		byType[tag] = count
	}

	return &domain.Stats{
		UserID:      userID,
		Total:       total,
		Unread:      unread,
		Read:        total - unread,
		ByType:      byType,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// SendTest creates an immediate notification a recipient can trigger
// from the settings screen to verify their channel setup.
func (uc *NotificationUsecase) SendTest(ctx context.Context, userID, typeTag string) (*domain.Notification, error) {
	return uc.CreateNotification(ctx, userID, typeTag,
		"Test notification",
		"This is a test notification to verify your delivery settings.",
		domain.PriorityLow, nil)
}

// SupportedTypes lists the registered notification types.
func (uc *NotificationUsecase) SupportedTypes() []string {
	return uc.registry.SupportedTypes()
}

// -----------------------------
// Preferences
// -----------------------------

func (uc *NotificationUsecase) UpsertPreference(ctx context.Context, p *domain.NotificationPreference) (*domain.NotificationPreference, error) {
	if p.UserID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	if p.Type == "" {
		return nil, xerrors.ErrInvalidInput
	}
	if (p.QuietStart == "") != (p.QuietEnd == "") {
		return nil, xerrors.ErrInvalidQuietHours
	}
	if p.QuietStart != "" {
		if _, _, ok := p.QuietWindow(); !ok {
			return nil, xerrors.ErrInvalidQuietHours
		}
	}
	return uc.preferences.Upsert(ctx, p)
}

// GetPreference returns the stored preference or the system default
// when none exists.
func (uc *NotificationUsecase) GetPreference(ctx context.Context, userID, typeTag string) (*domain.NotificationPreference, error) {
	p, err := uc.preferences.GetByUserAndType(ctx, userID, typeTag)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return domain.DefaultPreference(userID, typeTag), nil
		}
		return nil, err
	}
	return p, nil
}

func (uc *NotificationUsecase) ListPreferences(ctx context.Context, userID string) ([]*domain.NotificationPreference, error) {
	return uc.preferences.ListByUser(ctx, userID)
}

func (uc *NotificationUsecase) DeletePreferences(ctx context.Context, userID string) error {
	return uc.preferences.DeleteByUser(ctx, userID)
}

// DisableAllChannels writes an all-channels-off preference for every
// registered type.
func (uc *NotificationUsecase) DisableAllChannels(ctx context.Context, userID string) error {
	if userID == "" {
		return xerrors.ErrUserIDRequired
	}
	for _, tag := range uc.registry.SupportedTypes() {
		if _, err := uc.preferences.Upsert(ctx, &domain.NotificationPreference{
			UserID: userID,
			Type:   tag,
		}); err != nil {
			return fmt.Errorf("disable channels for type %s: %w", tag, err)
		}
	}
	return nil
}

// -----------------------------
// Push tokens
// -----------------------------

func (uc *NotificationUsecase) RegisterPushToken(ctx context.Context, userID, token, deviceType string) (*domain.PushToken, error) {
	if userID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	if token == "" {
		return nil, xerrors.ErrTokenRequired
	}
	return uc.pushTokens.Register(ctx, &domain.PushToken{
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
	})
}
