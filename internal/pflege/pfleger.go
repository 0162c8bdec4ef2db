package pflege

import (
	"context"
	"fmt"
	"strings"
)

// PflegerUpdate carries the mutable pfleger fields. Nil pointers leave the
// stored value untouched. A non-nil Password is hashed before persistence.
type PflegerUpdate struct {
	Name     *string
	Admin    *bool
	Password *string
}

// ListPfleger returns every account without password material. Admin only.
func (s *Service) ListPfleger(ctx context.Context, v Viewer) ([]Pfleger, error) {
	if err := requireAdmin(v); err != nil {
		return nil, err
	}
	list, err := s.store.ListPfleger(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}

// CreatePfleger registers a new account with a hashed secret. Admin only.
func (s *Service) CreatePfleger(ctx context.Context, v Viewer, name, password string, admin bool) (Pfleger, error) {
	if err := requireAdmin(v); err != nil {
		return Pfleger{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Pfleger{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if password == "" {
		return Pfleger{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Pfleger{}, err
	}
	p := Pfleger{Name: name, Admin: admin, PasswordHash: hash}
	if err := s.store.CreatePfleger(ctx, &p); err != nil {
		return Pfleger{}, err
	}
	p.PasswordHash = ""
	return p, nil
}

// UpdatePfleger mutates name, admin flag and optionally the secret. Admin
// only; identified by ID.
func (s *Service) UpdatePfleger(ctx context.Context, v Viewer, id string, upd PflegerUpdate) (Pfleger, error) {
	if err := requireAdmin(v); err != nil {
		return Pfleger{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Pfleger{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	p, err := s.store.FindPfleger(ctx, id)
	if err != nil {
		return Pfleger{}, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Pfleger{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		p.Name = name
	}
	if upd.Admin != nil {
		p.Admin = *upd.Admin
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return Pfleger{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return Pfleger{}, err
		}
		p.PasswordHash = hash
	}
	if err := s.store.UpdatePfleger(ctx, &p); err != nil {
		return Pfleger{}, err
	}
	p.PasswordHash = ""
	return p, nil
}

// DeletePfleger removes an account and its dependent records: first every
// protokoll the account owns (cascading to their eintraege), then any
// remaining eintraege the account wrote into other owners' protokolle.
// Deleting one's own account is always rejected, admin or not.
func (s *Service) DeletePfleger(ctx context.Context, v Viewer, id string) error {
	if err := requireAdmin(v); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if v.ID == id {
		return ErrSelfDelete
	}
	if _, err := s.store.FindPfleger(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeletePfleger(ctx, id); err != nil {
		return err
	}
	protokolle, err := s.store.ListProtokolleByErsteller(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range protokolle {
		if err := s.cascadeDeleteProtokoll(ctx, p.ID); err != nil {
			return err
		}
	}
	eintraege, err := s.store.ListEintraegeByErsteller(ctx, id)
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

func requireAdmin(v Viewer) error {
	if v.Guest() {
		return ErrNotAuthenticated
	}
	if !v.Admin {
		return ErrForbidden
	}
	return nil
}
