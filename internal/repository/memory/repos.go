package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
)

type eventRepo struct{ r *repos }

func (e eventRepo) Create(ctx context.Context, ev *domain.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	p, err := e.r.write(ev.ID)
	if err != nil {
		return err
	}
	if p.event != nil {
		return fmt.Errorf("%w: event %s already exists", domain.ErrInvalidInput, ev.ID)
	}
	stored := *ev
	p.event = &stored
	return nil
}

func (e eventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	p, err := e.r.read(id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.event == nil {
		return nil, domain.ErrNotFound
	}
	ev := *p.event
	return &ev, nil
}

type waitlistRepo struct{ r *repos }

func copyEntry(e domain.WaitlistEntry) *domain.WaitlistEntry {
	e.Geolocation = slices.Clone(e.Geolocation)
	return &e
}

func (w waitlistRepo) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	p, err := w.r.write(entry.EventID)
	if err != nil {
		return err
	}
	if _, ok := p.waitlist[entry.EntrantID]; ok {
		return domain.ErrAlreadyJoined
	}
	p.waitlist[entry.EntrantID] = *copyEntry(*entry)
	return nil
}

func (w waitlistRepo) Get(ctx context.Context, eventID, entrantID string) (*domain.WaitlistEntry, error) {
	p, err := w.r.read(eventID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	e, ok := p.waitlist[entrantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEntry(e), nil
}

func (w waitlistRepo) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	p, err := w.r.write(eventID)
	if err != nil {
		return false, err
	}
	if _, ok := p.waitlist[entrantID]; !ok {
		return false, nil
	}
	delete(p.waitlist, entrantID)
	return true, nil
}

func (w waitlistRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	p, err := w.r.read(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.WaitlistEntry, 0)
	if p == nil {
		return out, nil
	}
	for _, e := range p.waitlist {
		out = append(out, copyEntry(e))
	}
	slices.SortFunc(out, func(a, b *domain.WaitlistEntry) int {
		return byTimeThenID(a.JoinedAt, b.JoinedAt, a.EntrantID, b.EntrantID)
	})
	return out, nil
}

func (w waitlistRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	p, err := w.r.read(eventID)
	if err != nil || p == nil {
		return 0, err
	}
	return len(p.waitlist), nil
}

type notSelectedRepo struct{ r *repos }

func (n notSelectedRepo) Create(ctx context.Context, rec *domain.NotSelectedRecord) (bool, error) {
	p, err := n.r.write(rec.EventID)
	if err != nil {
		return false, err
	}
	if _, ok := p.notSelected[rec.EntrantID]; ok {
		return false, nil
	}
	p.notSelected[rec.EntrantID] = *rec
	return true, nil
}

func (n notSelectedRepo) Exists(ctx context.Context, eventID, entrantID string) (bool, error) {
	p, err := n.r.read(eventID)
	if err != nil || p == nil {
		return false, err
	}
	_, ok := p.notSelected[entrantID]
	return ok, nil
}

func (n notSelectedRepo) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	p, err := n.r.write(eventID)
	if err != nil {
		return false, err
	}
	if _, ok := p.notSelected[entrantID]; !ok {
		return false, nil
	}
	delete(p.notSelected, entrantID)
	return true, nil
}

func (n notSelectedRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.NotSelectedRecord, error) {
	p, err := n.r.read(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.NotSelectedRecord, 0)
	if p == nil {
		return out, nil
	}
	for _, rec := range p.notSelected {
		out = append(out, &rec)
	}
	slices.SortFunc(out, func(a, b *domain.NotSelectedRecord) int {
		return byTimeThenID(a.JoinedAt, b.JoinedAt, a.EntrantID, b.EntrantID)
	})
	return out, nil
}

func (n notSelectedRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	p, err := n.r.read(eventID)
	if err != nil || p == nil {
		return 0, err
	}
	return len(p.notSelected), nil
}

type selectionRepo struct{ r *repos }

func (s selectionRepo) Create(ctx context.Context, sel *domain.SelectionRecord) (bool, error) {
	p, err := s.r.write(sel.EventID)
	if err != nil {
		return false, err
	}
	if _, ok := p.selections[sel.EntrantID]; ok {
		return false, nil
	}
	p.selections[sel.EntrantID] = *sel
	return true, nil
}

func (s selectionRepo) Exists(ctx context.Context, eventID, entrantID string) (bool, error) {
	p, err := s.r.read(eventID)
	if err != nil || p == nil {
		return false, err
	}
	_, ok := p.selections[entrantID]
	return ok, nil
}

func (s selectionRepo) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	p, err := s.r.write(eventID)
	if err != nil {
		return false, err
	}
	if _, ok := p.selections[entrantID]; !ok {
		return false, nil
	}
	delete(p.selections, entrantID)
	return true, nil
}

func (s selectionRepo) DeleteByEventID(ctx context.Context, eventID string) (int, error) {
	p, err := s.r.write(eventID)
	if err != nil {
		return 0, err
	}
	n := len(p.selections)
	clear(p.selections)
	return n, nil
}

func (s selectionRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.SelectionRecord, error) {
	p, err := s.r.read(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.SelectionRecord, 0)
	if p == nil {
		return out, nil
	}
	for _, sel := range p.selections {
		out = append(out, &sel)
	}
	slices.SortFunc(out, func(a, b *domain.SelectionRecord) int {
		return byTimeThenID(a.SelectedAt, b.SelectedAt, a.EntrantID, b.EntrantID)
	})
	return out, nil
}

func (s selectionRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	p, err := s.r.read(eventID)
	if err != nil || p == nil {
		return 0, err
	}
	return len(p.selections), nil
}

type invitationRepo struct{ r *repos }

func copyInvitation(inv domain.Invitation) *domain.Invitation {
	inv.RespondedAt = clonePtr(inv.RespondedAt)
	return &inv
}

func (i invitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	p, err := i.r.write(inv.EventID)
	if err != nil {
		return err
	}
	for _, existing := range p.invitations {
		if existing.EntrantID == inv.EntrantID {
			return fmt.Errorf("%w: entrant %s already has an invitation", domain.ErrInvalidInput, inv.EntrantID)
		}
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	p.invitations[inv.ID] = *copyInvitation(*inv)
	return nil
}

func (i invitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	for _, p := range i.r.all() {
		if inv, ok := p.invitations[id]; ok {
			return copyInvitation(inv), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (i invitationRepo) GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*domain.Invitation, error) {
	p, err := i.r.read(eventID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		for _, inv := range p.invitations {
			if inv.EntrantID == entrantID {
				return copyInvitation(inv), nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (i invitationRepo) UpdateStatus(ctx context.Context, inv *domain.Invitation) error {
	p, err := i.r.write(inv.EventID)
	if err != nil {
		return err
	}
	current, ok := p.invitations[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	current.Status = inv.Status
	current.RespondedAt = clonePtr(inv.RespondedAt)
	p.invitations[inv.ID] = current
	return nil
}

func (i invitationRepo) ListByEventID(ctx context.Context, eventID string, statuses []domain.InvitationStatus) ([]*domain.Invitation, error) {
	p, err := i.r.read(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Invitation, 0)
	if p == nil {
		return out, nil
	}
	for _, inv := range p.invitations {
		if len(statuses) == 0 || slices.Contains(statuses, inv.Status) {
			out = append(out, copyInvitation(inv))
		}
	}
	sortInvitations(out)
	return out, nil
}

func (i invitationRepo) ListByEntrantID(ctx context.Context, entrantID string) ([]*domain.Invitation, error) {
	out := make([]*domain.Invitation, 0)
	for _, p := range i.r.all() {
		for _, inv := range p.invitations {
			if inv.EntrantID == entrantID {
				out = append(out, copyInvitation(inv))
			}
		}
	}
	sortInvitations(out)
	return out, nil
}

func (i invitationRepo) CountByStatus(ctx context.Context, eventID string, status domain.InvitationStatus) (int, error) {
	p, err := i.r.read(eventID)
	if err != nil || p == nil {
		return 0, err
	}
	n := 0
	for _, inv := range p.invitations {
		if inv.Status == status {
			n++
		}
	}
	return n, nil
}

func sortInvitations(invs []*domain.Invitation) {
	slices.SortFunc(invs, func(a, b *domain.Invitation) int {
		return byTimeThenID(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

type registrationRepo struct{ r *repos }

func copyRegistration(reg domain.Registration) *domain.Registration {
	reg.EnrolledAt = clonePtr(reg.EnrolledAt)
	reg.CancelledAt = clonePtr(reg.CancelledAt)
	return &reg
}

func (g registrationRepo) Upsert(ctx context.Context, reg *domain.Registration) error {
	p, err := g.r.write(reg.EventID)
	if err != nil {
		return err
	}
	if existing, ok := p.registrations[reg.EntrantID]; ok {
		reg.ID = existing.ID
		reg.CreatedAt = existing.CreatedAt
	} else if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	p.registrations[reg.EntrantID] = *copyRegistration(*reg)
	return nil
}

func (g registrationRepo) GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	p, err := g.r.read(eventID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	reg, ok := p.registrations[entrantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRegistration(reg), nil
}

func (g registrationRepo) ListByEventAndStatus(ctx context.Context, eventID string, statuses []domain.RegistrationStatus) ([]*domain.Registration, error) {
	p, err := g.r.read(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Registration, 0)
	if p == nil {
		return out, nil
	}
	for _, reg := range p.registrations {
		if len(statuses) == 0 || slices.Contains(statuses, reg.Status) {
			out = append(out, copyRegistration(reg))
		}
	}
	sortRegistrations(out)
	return out, nil
}

func (g registrationRepo) ListByEntrantID(ctx context.Context, entrantID string) ([]*domain.Registration, error) {
	out := make([]*domain.Registration, 0)
	for _, p := range g.r.all() {
		if reg, ok := p.registrations[entrantID]; ok {
			out = append(out, copyRegistration(reg))
		}
	}
	sortRegistrations(out)
	return out, nil
}

func (g registrationRepo) CountByStatus(ctx context.Context, eventID string, status domain.RegistrationStatus) (int, error) {
	p, err := g.r.read(eventID)
	if err != nil || p == nil {
		return 0, err
	}
	n := 0
	for _, reg := range p.registrations {
		if reg.Status == status {
			n++
		}
	}
	return n, nil
}

func sortRegistrations(regs []*domain.Registration) {
	slices.SortFunc(regs, func(a, b *domain.Registration) int {
		return byTimeThenID(a.CreatedAt, b.CreatedAt, a.EntrantID, b.EntrantID)
	})
}

type lotteryStateRepo struct{ r *repos }

func (l lotteryStateRepo) Get(ctx context.Context, eventID string) (*domain.LotteryState, error) {
	p, err := l.r.read(eventID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &domain.LotteryState{EventID: eventID}, nil
	}
	st := copyState(p.state)
	return &st, nil
}

func (l lotteryStateRepo) Save(ctx context.Context, state *domain.LotteryState) error {
	p, err := l.r.write(state.EventID)
	if err != nil {
		return err
	}
	p.state = copyState(*state)
	return nil
}

func byTimeThenID(ta, tb time.Time, ida, idb string) int {
	if c := ta.Compare(tb); c != 0 {
		return c
	}
	return cmp.Compare(ida, idb)
}
