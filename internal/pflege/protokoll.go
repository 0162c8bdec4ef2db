package pflege

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProtokollUpdate carries the mutable protokoll fields. The owner reference
// is immutable after creation.
type ProtokollUpdate struct {
	Patient *string
	Datum   *Datum
	Public  *bool
	Closed  *bool
}

// ListProtokolle returns every protokoll visible to the viewer: all public
// ones, plus the viewer's own when authenticated.
func (s *Service) ListProtokolle(ctx context.Context, v Viewer) ([]Protokoll, error) {
	list, err := s.store.ListProtokolle(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if err := s.decorateProtokoll(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetProtokoll loads a protokoll and checks read visibility.
func (s *Service) GetProtokoll(ctx context.Context, v Viewer, id string) (Protokoll, error) {
	p, err := s.store.FindProtokoll(ctx, id)
	if err != nil {
		return Protokoll{}, err
	}
	if !CanReadProtokoll(p, v) {
		return Protokoll{}, ErrForbidden
	}
	if err := s.decorateProtokoll(ctx, &p); err != nil {
		return Protokoll{}, err
	}
	return p, nil
}

// ListEintraege returns the eintraege of a protokoll, subject to the same
// visibility rule as reading the protokoll itself.
func (s *Service) ListEintraege(ctx context.Context, v Viewer, protokollID string) ([]Eintrag, error) {
	p, err := s.store.FindProtokoll(ctx, protokollID)
	if err != nil {
		return nil, err
	}
	if !CanReadProtokoll(p, v) {
		return nil, ErrForbidden
	}
	list, err := s.store.ListEintraegeByProtokoll(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if err := s.decorateEintrag(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CreateProtokoll persists a new protokoll. The caller must declare itself as
// ersteller; a log cannot be created on someone else's behalf.
func (s *Service) CreateProtokoll(ctx context.Context, v Viewer, in Protokoll) (Protokoll, error) {
	if v.Guest() {
		return Protokoll{}, ErrNotAuthenticated
	}
	if in.Ersteller == "" {
		in.Ersteller = v.ID
	}
	if in.Ersteller != v.ID {
		return Protokoll{}, ErrForbidden
	}
	in.Patient = strings.TrimSpace(in.Patient)
	if in.Patient == "" {
		return Protokoll{}, fmt.Errorf("%w: patient is required", ErrInvalidInput)
	}
	if in.Datum.IsZero() {
		return Protokoll{}, fmt.Errorf("%w: datum is required", ErrInvalidInput)
	}
	ersteller, err := s.store.FindPfleger(ctx, in.Ersteller)
	if err != nil {
		return Protokoll{}, err
	}
	if err := s.checkPatientDatumUnique(ctx, in.Patient, in.Datum, ""); err != nil {
		return Protokoll{}, err
	}

	now := s.now().UTC()
	p := Protokoll{
		Patient:   in.Patient,
		Datum:     in.Datum,
		Public:    in.Public,
		Closed:    in.Closed,
		Ersteller: in.Ersteller,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProtokoll(ctx, &p); err != nil {
		return Protokoll{}, err
	}
	p.ErstellerName = ersteller.Name
	return p, nil
}

// UpdateProtokoll mutates patient, datum, public and closed. Owner only.
func (s *Service) UpdateProtokoll(ctx context.Context, v Viewer, id string, upd ProtokollUpdate) (Protokoll, error) {
	p, err := s.store.FindProtokoll(ctx, id)
	if err != nil {
		return Protokoll{}, err
	}
	if !CanWriteProtokoll(p, v) {
		return Protokoll{}, ErrForbidden
	}
	if upd.Patient != nil {
		patient := strings.TrimSpace(*upd.Patient)
		if patient == "" {
			return Protokoll{}, fmt.Errorf("%w: patient is required", ErrInvalidInput)
		}
		p.Patient = patient
	}
	if upd.Datum != nil {
		if upd.Datum.IsZero() {
			return Protokoll{}, fmt.Errorf("%w: datum is required", ErrInvalidInput)
		}
		p.Datum = *upd.Datum
	}
	if upd.Public != nil {
		p.Public = *upd.Public
	}
	if upd.Closed != nil {
		p.Closed = *upd.Closed
	}
	if err := s.checkPatientDatumUnique(ctx, p.Patient, p.Datum, p.ID); err != nil {
		return Protokoll{}, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProtokoll(ctx, &p); err != nil {
		return Protokoll{}, err
	}
	if err := s.decorateProtokoll(ctx, &p); err != nil {
		return Protokoll{}, err
	}
	return p, nil
}

// DeleteProtokoll removes a protokoll and every eintrag it contains. Owner
// only.
func (s *Service) DeleteProtokoll(ctx context.Context, v Viewer, id string) error {
	p, err := s.store.FindProtokoll(ctx, id)
	if err != nil {
		return err
	}
	if !CanWriteProtokoll(p, v) {
		return ErrForbidden
	}
	return s.cascadeDeleteProtokoll(ctx, p.ID)
}

// cascadeDeleteProtokoll deletes the protokoll first, then its eintraege one
// by one. There is no rollback: a failing dependent delete leaves the
// remaining eintraege for a retry.
func (s *Service) cascadeDeleteProtokoll(ctx context.Context, id string) error {
	if err := s.store.DeleteProtokoll(ctx, id); err != nil {
		return err
	}
	eintraege, err := s.store.ListEintraegeByProtokoll(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range eintraege {
		if err := s.store.DeleteEintrag(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// checkPatientDatumUnique scans for another protokoll with the same
// (patient, datum) pair. The scan and the subsequent write are not atomic;
// two concurrent creates can both pass, which the backing store's unique
// index catches where available.
func (s *Service) checkPatientDatumUnique(ctx context.Context, patient string, datum Datum, excludeID string) error {
	_, err := s.store.FindProtokollByPatientDatum(ctx, patient, datum, excludeID)
	if err == nil {
		return fmt.Errorf("%w: a protokoll for %s on %s already exists", ErrConflict, patient, datum)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
