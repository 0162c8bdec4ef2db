package pflege

import (
	"context"
	"fmt"
	"strings"
)

// EintragUpdate carries the mutable eintrag fields. Ersteller and Protokoll
// cannot change after creation.
type EintragUpdate struct {
	Getraenk  *string
	Menge     *int
	Kommentar *string
}

// GetEintrag loads an eintrag and checks visibility against its parent
// protokoll and its author.
func (s *Service) GetEintrag(ctx context.Context, v Viewer, id string) (Eintrag, error) {
	e, err := s.store.FindEintrag(ctx, id)
	if err != nil {
		return Eintrag{}, err
	}
	p, err := s.store.FindProtokoll(ctx, e.Protokoll)
	if err != nil {
		return Eintrag{}, err
	}
	if !CanReadEintrag(p, e, v) {
		return Eintrag{}, ErrForbidden
	}
	if err := s.decorateEintrag(ctx, &e); err != nil {
		return Eintrag{}, err
	}
	return e, nil
}

// CreateEintrag records a new intake entry. The author is always the caller;
// a declared ersteller that differs from the caller is rejected rather than
// trusted. The target protokoll must exist, be writable for the caller, and
// be open.
func (s *Service) CreateEintrag(ctx context.Context, v Viewer, in Eintrag) (Eintrag, error) {
	if v.Guest() {
		return Eintrag{}, ErrNotAuthenticated
	}
	if in.Ersteller != "" && in.Ersteller != v.ID {
		return Eintrag{}, ErrForbidden
	}
	in.Getraenk = strings.TrimSpace(in.Getraenk)
	if in.Getraenk == "" {
		return Eintrag{}, fmt.Errorf("%w: getraenk is required", ErrInvalidInput)
	}
	if in.Protokoll == "" {
		return Eintrag{}, fmt.Errorf("%w: protokoll is required", ErrInvalidInput)
	}
	p, err := s.store.FindProtokoll(ctx, in.Protokoll)
	if err != nil {
		return Eintrag{}, err
	}
	if !CanCreateEintrag(p, v) {
		return Eintrag{}, ErrForbidden
	}
	if p.Closed {
		return Eintrag{}, ErrClosed
	}

	e := Eintrag{
		Getraenk:  in.Getraenk,
		Menge:     in.Menge,
		Kommentar: strings.TrimSpace(in.Kommentar),
		Ersteller: v.ID,
		Protokoll: p.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateEintrag(ctx, &e); err != nil {
		return Eintrag{}, err
	}
	if err := s.decorateEintrag(ctx, &e); err != nil {
		return Eintrag{}, err
	}
	return e, nil
}

// UpdateEintrag mutates getraenk, menge and kommentar. Allowed for the parent
// protokoll's owner and for the eintrag's author.
func (s *Service) UpdateEintrag(ctx context.Context, v Viewer, id string, upd EintragUpdate) (Eintrag, error) {
	e, err := s.store.FindEintrag(ctx, id)
	if err != nil {
		return Eintrag{}, err
	}
	p, err := s.store.FindProtokoll(ctx, e.Protokoll)
	if err != nil {
		return Eintrag{}, err
	}
	if !CanEditEintrag(p, e, v) {
		return Eintrag{}, ErrForbidden
	}
	if upd.Getraenk != nil {
		getraenk := strings.TrimSpace(*upd.Getraenk)
		if getraenk == "" {
			return Eintrag{}, fmt.Errorf("%w: getraenk is required", ErrInvalidInput)
		}
		e.Getraenk = getraenk
	}
	if upd.Menge != nil {
		e.Menge = *upd.Menge
	}
	if upd.Kommentar != nil {
		e.Kommentar = strings.TrimSpace(*upd.Kommentar)
	}
	if err := s.store.UpdateEintrag(ctx, &e); err != nil {
		return Eintrag{}, err
	}
	if err := s.decorateEintrag(ctx, &e); err != nil {
		return Eintrag{}, err
	}
	return e, nil
}

// DeleteEintrag removes a single eintrag. Allowed for the parent protokoll's
// owner and for the eintrag's author.
func (s *Service) DeleteEintrag(ctx context.Context, v Viewer, id string) error {
	e, err := s.store.FindEintrag(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.store.FindProtokoll(ctx, e.Protokoll)
	if err != nil {
		return err
	}
	if !CanEditEintrag(p, e, v) {
		return ErrForbidden
	}
	return s.store.DeleteEintrag(ctx, e.ID)
}
