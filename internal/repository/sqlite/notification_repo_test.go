package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/pkg/xerrors"
)

func testStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreate(t *testing.T, repo repository.NotificationStore, n *domain.Notification) {
	t.Helper()
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("Create(%s): %v", n.ID, err)
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()

	scheduled := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	n := &domain.Notification{
		ID:          "n1",
		UserID:      "u1",
		Type:        "POLICY",
		Title:       "Deadline",
		Message:     "Applications close friday",
		Priority:    domain.PriorityHigh,
		ScheduledAt: &scheduled,
		ChannelState: domain.ChannelState{
			domain.ChannelPush: domain.OutcomeTransientFailure,
		},
	}
	mustCreate(t, repo, n)

	got, err := repo.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != "u1" || got.Type != "POLICY" || got.Priority != domain.PriorityHigh {
		t.Errorf("got %+v", got)
	}
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(scheduled) {
		t.Errorf("ScheduledAt = %v, want %v", got.ScheduledAt, scheduled)
	}
	if got.ChannelState[domain.ChannelPush] != domain.OutcomeTransientFailure {
		t.Errorf("ChannelState = %v", got.ChannelState)
	}
	if got.Sent || got.Delivered || got.ReadAt != nil {
		t.Errorf("fresh record must be unsent and unread: %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testStore(t).Notifications()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByUserFilters(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()

	mustCreate(t, repo, &domain.Notification{ID: "a", UserID: "u1", Type: "POLICY", Title: "t", Message: "m", Priority: domain.PriorityHigh, CreatedAt: time.Unix(0, 1)})
	mustCreate(t, repo, &domain.Notification{ID: "b", UserID: "u1", Type: "HEALTH", Title: "t", Message: "m", Priority: domain.PriorityLow, CreatedAt: time.Unix(0, 2)})
	mustCreate(t, repo, &domain.Notification{ID: "c", UserID: "u2", Type: "POLICY", Title: "t", Message: "m", Priority: domain.PriorityLow, CreatedAt: time.Unix(0, 3)})

	if err := repo.MarkRead(ctx, "b"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	all, err := repo.ListByUser(ctx, "u1", repository.ListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	// newest first
	if all[0].ID != "b" || all[1].ID != "a" {
		t.Errorf("order = [%s %s], want [b a]", all[0].ID, all[1].ID)
	}

	byType, _ := repo.ListByUser(ctx, "u1", repository.ListFilter{Type: "policy"}, 10, 0)
	if len(byType) != 1 || byType[0].ID != "a" {
		t.Errorf("type filter = %v", byType)
	}

	unread := false
	read := true
	unreadOnly, _ := repo.ListByUser(ctx, "u1", repository.ListFilter{IsRead: &unread}, 10, 0)
	if len(unreadOnly) != 1 || unreadOnly[0].ID != "a" {
		t.Errorf("unread filter = %v", unreadOnly)
	}
	readOnly, _ := repo.ListByUser(ctx, "u1", repository.ListFilter{IsRead: &read}, 10, 0)
	if len(readOnly) != 1 || readOnly[0].ID != "b" {
		t.Errorf("read filter = %v", readOnly)
	}

	highOnly, _ := repo.ListByUser(ctx, "u1", repository.ListFilter{Priority: domain.PriorityHigh}, 10, 0)
	if len(highOnly) != 1 || highOnly[0].ID != "a" {
		t.Errorf("priority filter = %v", highOnly)
	}

	paged, _ := repo.ListByUser(ctx, "u1", repository.ListFilter{}, 1, 1)
	if len(paged) != 1 || paged[0].ID != "a" {
		t.Errorf("pagination = %v", paged)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()

	mustCreate(t, repo, &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})

	if err := repo.MarkRead(ctx, "n1"); err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	first, _ := repo.GetByID(ctx, "n1")
	if first.ReadAt == nil {
		t.Fatal("ReadAt not set")
	}

	if err := repo.MarkRead(ctx, "n1"); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	second, _ := repo.GetByID(ctx, "n1")
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Errorf("ReadAt changed on repeat: %v -> %v", first.ReadAt, second.ReadAt)
	}

	if err := repo.MarkRead(ctx, "missing"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Errorf("MarkRead(missing) = %v, want ErrNotFound", err)
	}
}

func TestMarkAllReadAndCounts(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		mustCreate(t, repo, &domain.Notification{ID: id, UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})
	}
	mustCreate(t, repo, &domain.Notification{ID: "d", UserID: "u2", Type: "POLICY", Title: "t", Message: "m", Priority: domain.PriorityLow})

	if count, _ := repo.CountUnread(ctx, "u1"); count != 3 {
		t.Errorf("CountUnread = %d, want 3", count)
	}

	updated, err := repo.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 3 {
		t.Errorf("updated = %d, want 3", updated)
	}
	if count, _ := repo.CountUnread(ctx, "u1"); count != 0 {
		t.Errorf("CountUnread after = %d, want 0", count)
	}
	// other users untouched
	if count, _ := repo.CountUnread(ctx, "u2"); count != 1 {
		t.Errorf("u2 CountUnread = %d, want 1", count)
	}

	if count, _ := repo.CountByUser(ctx, "u1"); count != 3 {
		t.Errorf("CountByUser = %d, want 3", count)
	}
	if count, _ := repo.CountByUserAndType(ctx, "u2", "policy"); count != 1 {
		t.Errorf("CountByUserAndType = %d, want 1", count)
	}
}

func TestDeleteByID(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()

	mustCreate(t, repo, &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})

	if err := repo.DeleteByID(ctx, "n1"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := repo.DeleteByID(ctx, "n1"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestClaimDueSelectsOnlyEligible(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	mustCreate(t, repo, &domain.Notification{ID: "immediate", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow, CreatedAt: time.Unix(0, 1)})
	mustCreate(t, repo, &domain.Notification{ID: "due", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow, ScheduledAt: &past, CreatedAt: time.Unix(0, 2)})
	mustCreate(t, repo, &domain.Notification{ID: "future", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow, ScheduledAt: &future, CreatedAt: time.Unix(0, 3)})
	mustCreate(t, repo, &domain.Notification{ID: "done", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow, Sent: true, CreatedAt: time.Unix(0, 4)})

	claimed, err := repo.ClaimDue(ctx, now, 2*time.Minute, 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d records, want 2", len(claimed))
	}
	ids := map[string]bool{}
	for _, n := range claimed {
		ids[n.ID] = true
	}
	if !ids["immediate"] || !ids["due"] {
		t.Errorf("claimed = %v, want immediate+due", ids)
	}
}

func TestClaimDueLeaseBlocksSecondScan(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate(t, repo, &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})

	first, err := repo.ClaimDue(ctx, now, 2*time.Minute, 10)
	if err != nil || len(first) != 1 {
		t.Fatalf("first claim = %v, %v", first, err)
	}

	// Second scan inside the lease window sees nothing.
	second, err := repo.ClaimDue(ctx, now.Add(time.Second), 2*time.Minute, 10)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second claim got %d records, want 0", len(second))
	}

	// After the lease expires the record is claimable again.
	third, err := repo.ClaimDue(ctx, now.Add(3*time.Minute), 2*time.Minute, 10)
	if err != nil {
		t.Fatalf("third claim: %v", err)
	}
	if len(third) != 1 || third[0].ID != "n1" {
		t.Fatalf("third claim = %v, want n1", third)
	}
}

func TestReleaseClaimMakesRecordEligible(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate(t, repo, &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})

	if _, err := repo.ClaimDue(ctx, now, 2*time.Minute, 10); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.ReleaseClaim(ctx, "n1"); err != nil {
		t.Fatalf("ReleaseClaim: %v", err)
	}

	again, err := repo.ClaimDue(ctx, now.Add(time.Second), 2*time.Minute, 10)
	if err != nil {
		t.Fatalf("re-claim: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("re-claim got %d records, want 1", len(again))
	}
}

func TestCompleteDispatch(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate(t, repo, &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow})
	if _, err := repo.ClaimDue(ctx, now, 2*time.Minute, 10); err != nil {
		t.Fatalf("claim: %v", err)
	}

	state := domain.ChannelState{
		domain.ChannelInApp: domain.OutcomeDelivered,
		domain.ChannelPush:  domain.OutcomePermanentFailure,
	}
	sentAt := now.Truncate(time.Microsecond)
	if err := repo.CompleteDispatch(ctx, "n1", state, true, true, &sentAt); err != nil {
		t.Fatalf("CompleteDispatch: %v", err)
	}

	got, _ := repo.GetByID(ctx, "n1")
	if !got.Sent || !got.Delivered {
		t.Errorf("Sent=%v Delivered=%v, want true/true", got.Sent, got.Delivered)
	}
	if got.SentAt == nil || !got.SentAt.Equal(sentAt) {
		t.Errorf("SentAt = %v, want %v", got.SentAt, sentAt)
	}
	if got.ClaimedUntil != nil {
		t.Errorf("ClaimedUntil = %v, want cleared", got.ClaimedUntil)
	}
	if got.ChannelState[domain.ChannelPush] != domain.OutcomePermanentFailure {
		t.Errorf("ChannelState = %v", got.ChannelState)
	}

	// A terminal record never reappears in a scan.
	again, _ := repo.ClaimDue(ctx, now.Add(time.Hour), 2*time.Minute, 10)
	if len(again) != 0 {
		t.Errorf("terminal record reclaimed: %v", again)
	}
}

func TestCompleteDispatchVanishedRecordIsNoop(t *testing.T) {
	repo := testStore(t).Notifications()

	err := repo.CompleteDispatch(context.Background(), "gone",
		domain.ChannelState{domain.ChannelInApp: domain.OutcomeDelivered}, true, true, nil)
	if err != nil {
		t.Fatalf("CompleteDispatch on vanished record = %v, want nil", err)
	}
}

func TestClaimDueRespectsBatchLimit(t *testing.T) {
	repo := testStore(t).Notifications()
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		mustCreate(t, repo, &domain.Notification{ID: id, UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m", Priority: domain.PriorityLow, CreatedAt: time.Unix(0, int64(i+1))})
	}

	claimed, err := repo.ClaimDue(ctx, now, 2*time.Minute, 2)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d, want 2", len(claimed))
	}
	// oldest first
	if claimed[0].ID != "a" || claimed[1].ID != "b" {
		t.Errorf("claimed order = [%s %s], want [a b]", claimed[0].ID, claimed[1].ID)
	}
}
