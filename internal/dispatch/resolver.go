// Package dispatch resolves the enabled channel set for a recipient
// ahead of delivery.
package dispatch

import (
	"context"
	"errors"
	"log"
	"time"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/pkg/xerrors"
)

// PreferenceResolver turns (recipient, type) into the set of channels
// to deliver on. It never fails: missing or malformed preference data
// degrades to the system default channel set.
type PreferenceResolver struct {
	prefs repository.PreferenceStore
	now   func() time.Time
}

func NewPreferenceResolver(prefs repository.PreferenceStore) *PreferenceResolver {
	return &PreferenceResolver{prefs: prefs, now: time.Now}
}

// ResolveChannels looks up the recipient's preference for typeTag and
// applies quiet-hours suppression. Absence of a stored preference
// means the system default (in-app + push); a store error other than
// not-found is logged and also degrades to the default rather than
// failing the dispatch.
func (r *PreferenceResolver) ResolveChannels(ctx context.Context, userID, typeTag string) []domain.Channel {
	pref, err := r.prefs.GetByUserAndType(ctx, userID, typeTag)
	if err != nil {
		if !errors.Is(err, xerrors.ErrNotFound) {
			log.Printf("[Resolver] preference lookup failed for %s/%s, using defaults: %v",
				userID, typeTag, err)
		}
		pref = domain.DefaultPreference(userID, typeTag)
	}

	channels := pref.EnabledChannels()
	if pref.InQuietHours(r.now()) {
		channels = dropInterruptive(channels)
	}
	return channels
}

// dropInterruptive removes push and SMS from the set. In-app and email
// are pull-based and never suppressed.
func dropInterruptive(channels []domain.Channel) []domain.Channel {
	out := channels[:0]
	for _, ch := range channels {
		if ch.Interruptive() {
			continue
		}
		out = append(out, ch)
	}
	return out
}
