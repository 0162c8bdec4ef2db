package pflege

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pflegelog.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. It backs the
// server when no Postgres DSN is configured and doubles as the test store.
type InMemory struct {
	mu         sync.RWMutex
	pfleger    map[string]Pfleger
	protokolle map[string]Protokoll
	eintraege  map[string]Eintrag
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		pfleger:    make(map[string]Pfleger),
		protokolle: make(map[string]Protokoll),
		eintraege:  make(map[string]Eintrag),
	}
}

func (s *InMemory) CreatePfleger(ctx context.Context, p *Pfleger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.pfleger {
		if strings.EqualFold(existing.Name, p.Name) {
			return ErrConflict
		}
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	s.pfleger[p.ID] = *p
	return nil
}

func (s *InMemory) FindPfleger(ctx context.Context, id string) (Pfleger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pfleger[id]
	if !ok {
		return Pfleger{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemory) FindPflegerByName(ctx context.Context, name string) (Pfleger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pfleger {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Pfleger{}, ErrNotFound
}

func (s *InMemory) ListPfleger(ctx context.Context) ([]Pfleger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pfleger, 0, len(s.pfleger))
	for _, p := range s.pfleger {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) UpdatePfleger(ctx context.Context, p *Pfleger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pfleger[p.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range s.pfleger {
		if id != p.ID && strings.EqualFold(existing.Name, p.Name) {
			return ErrConflict
		}
	}
	s.pfleger[p.ID] = *p
	return nil
}

func (s *InMemory) DeletePfleger(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pfleger[id]; !ok {
		return ErrNotFound
	}
	delete(s.pfleger, id)
	return nil
}

func (s *InMemory) CreateProtokoll(ctx context.Context, p *Protokoll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	s.protokolle[p.ID] = *p
	return nil
}

func (s *InMemory) FindProtokoll(ctx context.Context, id string) (Protokoll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.protokolle[id]
	if !ok {
		return Protokoll{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemory) ListProtokolle(ctx context.Context, visibleTo string) ([]Protokoll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Protokoll, 0, len(s.protokolle))
	for _, p := range s.protokolle {
		if p.Public || (visibleTo != "" && p.Ersteller == visibleTo) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) ListProtokolleByErsteller(ctx context.Context, pflegerID string) ([]Protokoll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Protokoll
	for _, p := range s.protokolle {
		if p.Ersteller == pflegerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindProtokollByPatientDatum(ctx context.Context, patient string, datum Datum, excludeID string) (Protokoll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.protokolle {
		if p.ID == excludeID {
			continue
		}
		if strings.EqualFold(p.Patient, patient) && p.Datum.Equal(datum) {
			return p, nil
		}
	}
	return Protokoll{}, ErrNotFound
}

func (s *InMemory) UpdateProtokoll(ctx context.Context, p *Protokoll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.protokolle[p.ID]; !ok {
		return ErrNotFound
	}
	s.protokolle[p.ID] = *p
	return nil
}

func (s *InMemory) DeleteProtokoll(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.protokolle[id]; !ok {
		return ErrNotFound
	}
	delete(s.protokolle, id)
	return nil
}

func (s *InMemory) CreateEintrag(ctx context.Context, e *Eintrag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = ids.New()
	}
	s.eintraege[e.ID] = *e
	return nil
}

func (s *InMemory) FindEintrag(ctx context.Context, id string) (Eintrag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.eintraege[id]
	if !ok {
		return Eintrag{}, ErrNotFound
	}
	return e, nil
}

func (s *InMemory) ListEintraegeByProtokoll(ctx context.Context, protokollID string) ([]Eintrag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Eintrag
	for _, e := range s.eintraege {
		if e.Protokoll == protokollID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) ListEintraegeByErsteller(ctx context.Context, pflegerID string) ([]Eintrag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Eintrag
	for _, e := range s.eintraege {
		if e.Ersteller == pflegerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) SummeMenge(ctx context.Context, protokollID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, e := range s.eintraege {
		if e.Protokoll == protokollID {
			total += e.Menge
		}
	}
	return total, nil
}

func (s *InMemory) UpdateEintrag(ctx context.Context, e *Eintrag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eintraege[e.ID]; !ok {
		return ErrNotFound
	}
	s.eintraege[e.ID] = *e
	return nil
}

func (s *InMemory) DeleteEintrag(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eintraege[id]; !ok {
		return ErrNotFound
	}
	delete(s.eintraege, id)
	return nil
}
