package domain

import "context"

// Notification templates sent by the lottery core.
const (
	TemplateLotterySelected       = "lottery_selected"
	TemplateLotteryNotSelected    = "lottery_not_selected"
	TemplateReplacementSelected   = "replacement_selected"
	TemplateInvitationCancelled   = "invitation_cancelled"
	TemplateRegistrationCancelled = "registration_cancelled"
)

// Template variable keys.
const (
	VarEventName = "event_name"
)

// Notifier is the notification sink. Delivery is best-effort and asynchronous; an error only
// means the request could not be accepted. Callers log it and carry on.
type Notifier interface {
	Notify(ctx context.Context, eventID string, recipientIDs []string, template string, vars map[string]string) error
}

// DisplayAttributes is what the profile directory knows about an entrant.
// swagger:model DisplayAttributes
type DisplayAttributes struct {
	EntrantID            string `json:"entrant_id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// ProfileDirectory resolves an entrant id to presentation attributes. It is never consulted
// for lottery decisions.
type ProfileDirectory interface {
	Resolve(ctx context.Context, entrantID string) (*DisplayAttributes, error)
}

// ProfileStore is a ProfileDirectory that entrants can update.
type ProfileStore interface {
	ProfileDirectory
	Upsert(ctx context.Context, attrs *DisplayAttributes) error
}
