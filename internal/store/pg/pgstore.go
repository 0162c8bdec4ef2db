package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pflegelog.org/internal/ids"
	"pflegelog.org/internal/pflege"
)

const pgErrUniqueViolation = "23505"

// Store implements pflege.Store on Postgres via database/sql with the pgx
// driver.
type Store struct {
	db *sql.DB
}

var _ pflege.Store = (*Store)(nil)

// Open connects to Postgres and tunes the connection pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests with a mock driver.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) CreatePfleger(ctx context.Context, p *pflege.Pfleger) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into pfleger(id, name, admin, password_hash)
		values ($1, $2, $3, $4)
	`, p.ID, p.Name, p.Admin, p.PasswordHash)
	return translate(err)
}

func (s *Store) FindPfleger(ctx context.Context, id string) (pflege.Pfleger, error) {
	var p pflege.Pfleger
	err := s.db.QueryRowContext(ctx, `
		select id, name, admin, password_hash from pfleger where id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Admin, &p.PasswordHash)
	if err != nil {
		return pflege.Pfleger{}, translate(err)
	}
	return p, nil
}

func (s *Store) FindPflegerByName(ctx context.Context, name string) (pflege.Pfleger, error) {
	var p pflege.Pfleger
	err := s.db.QueryRowContext(ctx, `
		select id, name, admin, password_hash from pfleger where lower(name)=lower($1)
	`, name).Scan(&p.ID, &p.Name, &p.Admin, &p.PasswordHash)
	if err != nil {
		return pflege.Pfleger{}, translate(err)
	}
	return p, nil
}

func (s *Store) ListPfleger(ctx context.Context) ([]pflege.Pfleger, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, admin, password_hash from pfleger order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []pflege.Pfleger{}
	for rows.Next() {
		var p pflege.Pfleger
		if err := rows.Scan(&p.ID, &p.Name, &p.Admin, &p.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePfleger(ctx context.Context, p *pflege.Pfleger) error {
	res, err := s.db.ExecContext(ctx, `
		update pfleger set name=$2, admin=$3, password_hash=$4 where id=$1
	`, p.ID, p.Name, p.Admin, p.PasswordHash)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *Store) DeletePfleger(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from pfleger where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CreateProtokoll(ctx context.Context, p *pflege.Protokoll) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into protokoll(id, patient, datum, public, closed, ersteller, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Patient, p.Datum, p.Public, p.Closed, p.Ersteller, p.CreatedAt, p.UpdatedAt)
	return translate(err)
}

const protokollColumns = `id, patient, datum, public, closed, ersteller, created_at, updated_at`

func scanProtokoll(row interface{ Scan(...any) error }) (pflege.Protokoll, error) {
	var p pflege.Protokoll
	err := row.Scan(&p.ID, &p.Patient, &p.Datum, &p.Public, &p.Closed, &p.Ersteller, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) FindProtokoll(ctx context.Context, id string) (pflege.Protokoll, error) {
	p, err := scanProtokoll(s.db.QueryRowContext(ctx, `
		select `+protokollColumns+` from protokoll where id=$1
	`, id))
	if err != nil {
		return pflege.Protokoll{}, translate(err)
	}
	return p, nil
}

func (s *Store) ListProtokolle(ctx context.Context, visibleTo string) ([]pflege.Protokoll, error) {
	return s.queryProtokolle(ctx, `
		select `+protokollColumns+` from protokoll
		where public or ersteller=$1
		order by id
	`, visibleTo)
}

func (s *Store) ListProtokolleByErsteller(ctx context.Context, pflegerID string) ([]pflege.Protokoll, error) {
	return s.queryProtokolle(ctx, `
		select `+protokollColumns+` from protokoll where ersteller=$1 order by id
	`, pflegerID)
}

func (s *Store) queryProtokolle(ctx context.Context, query string, args ...any) ([]pflege.Protokoll, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []pflege.Protokoll{}
	for rows.Next() {
		p, err := scanProtokoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FindProtokollByPatientDatum(ctx context.Context, patient string, datum pflege.Datum, excludeID string) (pflege.Protokoll, error) {
	p, err := scanProtokoll(s.db.QueryRowContext(ctx, `
		select `+protokollColumns+` from protokoll
		where lower(patient)=lower($1) and datum=$2 and id<>$3
	`, patient, datum, excludeID))
	if err != nil {
		return pflege.Protokoll{}, translate(err)
	}
	return p, nil
}

func (s *Store) UpdateProtokoll(ctx context.Context, p *pflege.Protokoll) error {
	res, err := s.db.ExecContext(ctx, `
		update protokoll
		set patient=$2, datum=$3, public=$4, closed=$5, updated_at=$6
		where id=$1
	`, p.ID, p.Patient, p.Datum, p.Public, p.Closed, p.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *Store) DeleteProtokoll(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from protokoll where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CreateEintrag(ctx context.Context, e *pflege.Eintrag) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into eintrag(id, getraenk, menge, kommentar, ersteller, protokoll, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Getraenk, e.Menge, e.Kommentar, e.Ersteller, e.Protokoll, e.CreatedAt)
	return translate(err)
}

const eintragColumns = `id, getraenk, menge, kommentar, ersteller, protokoll, created_at`

func scanEintrag(row interface{ Scan(...any) error }) (pflege.Eintrag, error) {
	var e pflege.Eintrag
	err := row.Scan(&e.ID, &e.Getraenk, &e.Menge, &e.Kommentar, &e.Ersteller, &e.Protokoll, &e.CreatedAt)
	return e, err
}

func (s *Store) FindEintrag(ctx context.Context, id string) (pflege.Eintrag, error) {
	e, err := scanEintrag(s.db.QueryRowContext(ctx, `
		select `+eintragColumns+` from eintrag where id=$1
	`, id))
	if err != nil {
		return pflege.Eintrag{}, translate(err)
	}
	return e, nil
}

func (s *Store) ListEintraegeByProtokoll(ctx context.Context, protokollID string) ([]pflege.Eintrag, error) {
	return s.queryEintraege(ctx, `
		select `+eintragColumns+` from eintrag where protokoll=$1 order by id
	`, protokollID)
}

func (s *Store) ListEintraegeByErsteller(ctx context.Context, pflegerID string) ([]pflege.Eintrag, error) {
	return s.queryEintraege(ctx, `
		select `+eintragColumns+` from eintrag where ersteller=$1 order by id
	`, pflegerID)
}

func (s *Store) queryEintraege(ctx context.Context, query string, args ...any) ([]pflege.Eintrag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []pflege.Eintrag{}
	for rows.Next() {
		e, err := scanEintrag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SummeMenge(ctx context.Context, protokollID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		select coalesce(sum(menge), 0) from eintrag where protokoll=$1
	`, protokollID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateEintrag(ctx context.Context, e *pflege.Eintrag) error {
	res, err := s.db.ExecContext(ctx, `
		update eintrag
		set getraenk=$2, menge=$3, kommentar=$4
		where id=$1
	`, e.ID, e.Getraenk, e.Menge, e.Kommentar)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *Store) DeleteEintrag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from eintrag where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// translate maps driver errors onto the domain sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return pflege.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return pflege.ErrConflict
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pflege.ErrNotFound
	}
	return nil
}
