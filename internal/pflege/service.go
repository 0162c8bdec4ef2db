package pflege

import (
	"context"
	"errors"
	"time"
)

// Service enforces the ownership policy and referential integrity on top of a
// Store. Existence is always checked before permission so probing callers see
// not-found and forbidden as distinct outcomes.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("pflege store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// decorateProtokoll fills the derived response fields: the owner's display
// name and the total quantity across the protokoll's eintraege.
func (s *Service) decorateProtokoll(ctx context.Context, p *Protokoll) error {
	ersteller, err := s.store.FindPfleger(ctx, p.Ersteller)
	if err == nil {
		p.ErstellerName = ersteller.Name
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	sum, err := s.store.SummeMenge(ctx, p.ID)
	if err != nil {
		return err
	}
	p.GesamtMenge = sum
	return nil
}

func (s *Service) decorateEintrag(ctx context.Context, e *Eintrag) error {
	ersteller, err := s.store.FindPfleger(ctx, e.Ersteller)
	if err == nil {
		e.ErstellerName = ersteller.Name
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
