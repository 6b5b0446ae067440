package strategy

import (
	"context"
	"strings"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

// base carries the shared delivery engine and the common validation
// every strategy applies.
type base struct {
	typeTag   string
	deliverer *Deliverer
}

func (b base) Type() string { return b.typeTag }

func (b base) Validate(n *domain.Notification) error {
	if n.UserID == "" {
		return xerrors.ErrUserIDRequired
	}
	if strings.TrimSpace(n.Title) == "" {
		return xerrors.ErrTitleRequired
	}
	if strings.TrimSpace(n.Message) == "" {
		return xerrors.ErrMessageRequired
	}
	return nil
}

func (b base) Deliver(ctx context.Context, n *domain.Notification, channels []domain.Channel) domain.ChannelState {
	return b.deliverer.Deliver(ctx, n, channels)
}

func containsAny(n *domain.Notification, keywords ...string) bool {
	title := strings.ToLower(n.Title)
	message := strings.ToLower(n.Message)
	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// SystemStrategy is the required fallback: operational and account
// notices, plus anything with an unrecognized type tag.
type SystemStrategy struct{ base }

func NewSystemStrategy(d *Deliverer) *SystemStrategy {
	return &SystemStrategy{base{typeTag: SystemType, deliverer: d}}
}

func (s *SystemStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	switch {
	case containsAny(n, "urgent", "error"):
		return domain.PriorityHigh
	case containsAny(n, "update"):
		return domain.PriorityNormal
	default:
		return domain.PriorityLow
	}
}

// PolicyStrategy handles childcare-policy notices: application
// deadlines, benefit changes, new programs.
type PolicyStrategy struct{ base }

func NewPolicyStrategy(d *Deliverer) *PolicyStrategy {
	return &PolicyStrategy{base{typeTag: "POLICY", deliverer: d}}
}

func (s *PolicyStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	switch {
	case containsAny(n, "urgent", "deadline"):
		return domain.PriorityHigh
	case containsAny(n, "new"):
		return domain.PriorityNormal
	default:
		return domain.PriorityLow
	}
}

// FacilityStrategy handles daycare/kindergarten facility notices:
// enrollment results, waitlist movement, closures.
type FacilityStrategy struct{ base }

func NewFacilityStrategy(d *Deliverer) *FacilityStrategy {
	return &FacilityStrategy{base{typeTag: "FACILITY", deliverer: d}}
}

func (s *FacilityStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	if containsAny(n, "closure", "urgent") {
		return domain.PriorityHigh
	}
	return domain.PriorityNormal
}

// HealthStrategy handles checkup and vaccination reminders. These
// default high: a missed vaccination window is costly.
type HealthStrategy struct{ base }

func NewHealthStrategy(d *Deliverer) *HealthStrategy {
	return &HealthStrategy{base{typeTag: "HEALTH", deliverer: d}}
}

func (s *HealthStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	if containsAny(n, "overdue", "urgent") {
		return domain.PriorityHigh
	}
	return domain.PriorityNormal
}

// CommunityStrategy handles replies, mentions and board activity.
type CommunityStrategy struct{ base }

func NewCommunityStrategy(d *Deliverer) *CommunityStrategy {
	return &CommunityStrategy{base{typeTag: "COMMUNITY", deliverer: d}}
}

func (s *CommunityStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	// "repl" stems both "reply" and "replied".
	if containsAny(n, "mention", "repl") {
		return domain.PriorityNormal
	}
	return domain.PriorityLow
}

// ChatbotStrategy handles async chatbot follow-ups.
type ChatbotStrategy struct{ base }

func NewChatbotStrategy(d *Deliverer) *ChatbotStrategy {
	return &ChatbotStrategy{base{typeTag: "CHATBOT", deliverer: d}}
}

func (s *ChatbotStrategy) DeterminePriority(n *domain.Notification) domain.Priority {
	return domain.PriorityLow
}

// DefaultRegistry wires every built-in strategy over one deliverer.
func DefaultRegistry(d *Deliverer) (*Registry, error) {
	return NewRegistry(
		NewSystemStrategy(d),
		NewPolicyStrategy(d),
		NewFacilityStrategy(d),
		NewHealthStrategy(d),
		NewCommunityStrategy(d),
		NewChatbotStrategy(d),
	)
}
