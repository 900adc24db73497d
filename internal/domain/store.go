package domain

import "context"

// Repositories is the set of record stores one unit of work operates on.
type Repositories interface {
	Events() EventRepository
	Waitlist() WaitlistRepository
	NotSelected() NotSelectedRepository
	Selections() SelectionRepository
	Invitations() InvitationRepository
	Registrations() RegistrationRepository
	LotteryState() LotteryStateRepository
}

// Store is the persistent system of record.
//
// WithinEvent runs fn as one atomic unit: either every write fn made is committed or none is,
// and units for the same event never interleave. fn may be invoked again by callers that retry
// transient failures, so it must not have side effects outside the repositories it is given.
//
// View runs fn against committed state without the event lock.
//
// Failures that are safe to retry are reported as errors matching ErrTransient.
type Store interface {
	WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx Repositories) error) error
	View(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Profiles() ProfileStore
}
