package pflege

import "context"

// Store describes persistence operations required by the pflege service.
// Implementations guarantee per-record atomicity only; cross-record
// consistency (uniqueness scans, cascades) is the service's concern.
type Store interface {
	CreatePfleger(ctx context.Context, p *Pfleger) error
	FindPfleger(ctx context.Context, id string) (Pfleger, error)
	FindPflegerByName(ctx context.Context, name string) (Pfleger, error)
	ListPfleger(ctx context.Context) ([]Pfleger, error)
	UpdatePfleger(ctx context.Context, p *Pfleger) error
	DeletePfleger(ctx context.Context, id string) error

	CreateProtokoll(ctx context.Context, p *Protokoll) error
	FindProtokoll(ctx context.Context, id string) (Protokoll, error)
	// ListProtokolle returns all public protokolle plus, when visibleTo is
	// non-empty, the ones owned by that pfleger.
	ListProtokolle(ctx context.Context, visibleTo string) ([]Protokoll, error)
	ListProtokolleByErsteller(ctx context.Context, pflegerID string) ([]Protokoll, error)
	// FindProtokollByPatientDatum locates another protokoll with the same
	// (patient, datum) pair, skipping excludeID when non-empty.
	FindProtokollByPatientDatum(ctx context.Context, patient string, datum Datum, excludeID string) (Protokoll, error)
	UpdateProtokoll(ctx context.Context, p *Protokoll) error
	DeleteProtokoll(ctx context.Context, id string) error

	CreateEintrag(ctx context.Context, e *Eintrag) error
	FindEintrag(ctx context.Context, id string) (Eintrag, error)
	ListEintraegeByProtokoll(ctx context.Context, protokollID string) ([]Eintrag, error)
	ListEintraegeByErsteller(ctx context.Context, pflegerID string) ([]Eintrag, error)
	SummeMenge(ctx context.Context, protokollID string) (int, error)
	UpdateEintrag(ctx context.Context, e *Eintrag) error
	DeleteEintrag(ctx context.Context, id string) error
}
