package pflege

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testService(t *testing.T) (*Service, *InMemory) {
	t.Helper()
	store := NewInMemory()
	svc, err := NewService(store, WithClock(func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatal(err)
	}
	return svc, store
}

func seedPfleger(t *testing.T, store *InMemory, name string, admin bool) Pfleger {
	t.Helper()
	hash, err := HashPassword("Geheim123!")
	if err != nil {
		t.Fatal(err)
	}
	p := Pfleger{Name: name, Admin: admin, PasswordHash: hash}
	if err := store.CreatePfleger(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func mustDatum(t *testing.T, s string) Datum {
	t.Helper()
	d, err := ParseDatum(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func seedProtokoll(t *testing.T, svc *Service, owner Pfleger, patient, datum string, public bool) Protokoll {
	t.Helper()
	p, err := svc.CreateProtokoll(context.Background(), Viewer{ID: owner.ID, Admin: owner.Admin}, Protokoll{
		Patient: patient,
		Datum:   mustDatum(t, datum),
		Public:  public,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestVisibility(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	ben := seedPfleger(t, store, "Ben", false)

	private := seedProtokoll(t, svc, anna, "Frau Mueller", "01.08.2026", false)
	public := seedProtokoll(t, svc, anna, "Herr Schmidt", "01.08.2026", true)

	if _, err := svc.GetProtokoll(ctx, Viewer{ID: ben.ID}, private.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign private protokoll, got %v", err)
	}
	if _, err := svc.GetProtokoll(ctx, Viewer{}, private.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for guest, got %v", err)
	}
	if _, err := svc.GetProtokoll(ctx, Viewer{ID: anna.ID}, private.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetProtokoll(ctx, Viewer{}, public.ID); err != nil {
		t.Fatalf("guest read of public protokoll failed: %v", err)
	}

	visible, err := svc.ListProtokolle(ctx, Viewer{ID: ben.ID})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range visible {
		if p.ID == private.ID {
			t.Fatalf("private protokoll leaked into foreign listing")
		}
	}
	own, err := svc.ListProtokolle(ctx, Viewer{ID: anna.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(own) != 2 {
		t.Fatalf("owner listing: got %d protokolle, want 2", len(own))
	}
}

func TestClosedProtokollRejectsNewEintrag(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	p := seedProtokoll(t, svc, anna, "Frau Mueller", "02.08.2026", true)

	closed := true
	if _, err := svc.UpdateProtokoll(ctx, Viewer{ID: anna.ID}, p.ID, ProtokollUpdate{Closed: &closed}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Tee", Menge: 150, Protokoll: p.ID})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	// Reopening makes the protokoll writable again.
	open := false
	if _, err := svc.UpdateProtokoll(ctx, Viewer{ID: anna.ID}, p.ID, ProtokollUpdate{Closed: &open}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Tee", Menge: 150, Protokoll: p.ID}); err != nil {
		t.Fatalf("create after reopen failed: %v", err)
	}
}

func TestPatientDatumUniqueness(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	ben := seedPfleger(t, store, "Ben", false)

	seedProtokoll(t, svc, anna, "Frau Mueller", "03.08.2026", true)

	// Same pair, even from another account, is rejected.
	_, err := svc.CreateProtokoll(ctx, Viewer{ID: ben.ID}, Protokoll{
		Patient: "Frau Mueller",
		Datum:   mustDatum(t, "03.08.2026"),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// A different day is fine.
	other, err := svc.CreateProtokoll(ctx, Viewer{ID: ben.ID}, Protokoll{
		Patient: "Frau Mueller",
		Datum:   mustDatum(t, "04.08.2026"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// An update must not collide with the existing pair but may keep its own.
	datum := mustDatum(t, "03.08.2026")
	if _, err := svc.UpdateProtokoll(ctx, Viewer{ID: ben.ID}, other.ID, ProtokollUpdate{Datum: &datum}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on update, got %v", err)
	}
	patient := "Frau Mueller"
	if _, err := svc.UpdateProtokoll(ctx, Viewer{ID: ben.ID}, other.ID, ProtokollUpdate{Patient: &patient}); err != nil {
		t.Fatalf("no-op uniqueness update failed: %v", err)
	}
}

func TestCreateEintragAuthorIsCaller(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	ben := seedPfleger(t, store, "Ben", false)
	p := seedProtokoll(t, svc, anna, "Frau Mueller", "05.08.2026", true)

	if _, err := svc.CreateEintrag(ctx, Viewer{}, Eintrag{Getraenk: "Wasser", Menge: 200, Protokoll: p.ID}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for guest, got %v", err)
	}
	if _, err := svc.CreateEintrag(ctx, Viewer{ID: ben.ID}, Eintrag{Getraenk: "Wasser", Menge: 200, Protokoll: p.ID, Ersteller: anna.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign ersteller claim, got %v", err)
	}
	e, err := svc.CreateEintrag(ctx, Viewer{ID: ben.ID}, Eintrag{Getraenk: "Wasser", Menge: 200, Protokoll: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if e.Ersteller != ben.ID {
		t.Fatalf("eintrag author = %q, want caller %q", e.Ersteller, ben.ID)
	}
	if e.ErstellerName != "Ben" {
		t.Fatalf("erstellerName = %q, want Ben", e.ErstellerName)
	}
}

func TestEintragEditMatrix(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	owner := seedPfleger(t, store, "Anna", false)
	author := seedPfleger(t, store, "Ben", false)
	outsider := seedPfleger(t, store, "Carla", false)
	p := seedProtokoll(t, svc, owner, "Frau Mueller", "06.08.2026", true)

	e, err := svc.CreateEintrag(ctx, Viewer{ID: author.ID}, Eintrag{Getraenk: "Saft", Menge: 100, Protokoll: p.ID})
	if err != nil {
		t.Fatal(err)
	}

	menge := 250
	if _, err := svc.UpdateEintrag(ctx, Viewer{ID: outsider.ID}, e.ID, EintragUpdate{Menge: &menge}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider edit: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateEintrag(ctx, Viewer{ID: author.ID}, e.ID, EintragUpdate{Menge: &menge}); err != nil {
		t.Fatalf("author edit failed: %v", err)
	}
	if _, err := svc.UpdateEintrag(ctx, Viewer{ID: owner.ID}, e.ID, EintragUpdate{Menge: &menge}); err != nil {
		t.Fatalf("owner edit failed: %v", err)
	}
	if err := svc.DeleteEintrag(ctx, Viewer{ID: outsider.ID}, e.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteEintrag(ctx, Viewer{ID: owner.ID}, e.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

func TestGesamtMengeSumsEintraege(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	p := seedProtokoll(t, svc, anna, "Frau Mueller", "07.08.2026", false)

	for _, menge := range []int{150, 200, 50} {
		if _, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Wasser", Menge: menge, Protokoll: p.ID}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := svc.GetProtokoll(ctx, Viewer{ID: anna.ID}, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GesamtMenge != 400 {
		t.Fatalf("gesamtMenge = %d, want 400", got.GesamtMenge)
	}
	if got.ErstellerName != "Anna" {
		t.Fatalf("erstellerName = %q, want Anna", got.ErstellerName)
	}
}

func TestDeleteProtokollCascadesEintraege(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	anna := seedPfleger(t, store, "Anna", false)
	p := seedProtokoll(t, svc, anna, "Frau Mueller", "08.08.2026", true)

	e1, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Tee", Menge: 100, Protokoll: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	e2, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Saft", Menge: 100, Protokoll: p.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteProtokoll(ctx, Viewer{ID: anna.ID}, p.ID); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{e1.ID, e2.ID} {
		if _, err := store.FindEintrag(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("eintrag %s survived the cascade: %v", id, err)
		}
	}
	if _, err := store.FindProtokoll(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("protokoll survived deletion: %v", err)
	}
}

func TestDeletePflegerCascades(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	admin := seedPfleger(t, store, "Chef", true)
	anna := seedPfleger(t, store, "Anna", false)
	ben := seedPfleger(t, store, "Ben", false)

	// Anna owns a protokoll with her own and Ben's eintraege, and authored
	// an eintrag in Ben's protokoll.
	own := seedProtokoll(t, svc, anna, "Frau Mueller", "09.08.2026", true)
	foreign := seedProtokoll(t, svc, ben, "Herr Schmidt", "09.08.2026", true)

	if _, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Tee", Menge: 100, Protokoll: own.ID}); err != nil {
		t.Fatal(err)
	}
	bensEintrag, err := svc.CreateEintrag(ctx, Viewer{ID: ben.ID}, Eintrag{Getraenk: "Saft", Menge: 100, Protokoll: own.ID})
	if err != nil {
		t.Fatal(err)
	}
	annasForeign, err := svc.CreateEintrag(ctx, Viewer{ID: anna.ID}, Eintrag{Getraenk: "Wasser", Menge: 100, Protokoll: foreign.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeletePfleger(ctx, Viewer{ID: admin.ID, Admin: true}, anna.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := store.FindProtokoll(ctx, own.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owned protokoll survived: %v", err)
	}
	if _, err := store.FindEintrag(ctx, bensEintrag.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign-authored eintrag in owned protokoll survived: %v", err)
	}
	if _, err := store.FindEintrag(ctx, annasForeign.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("authored eintrag in foreign protokoll survived: %v", err)
	}
	if _, err := store.FindProtokoll(ctx, foreign.ID); err != nil {
		t.Fatalf("unrelated protokoll was deleted: %v", err)
	}
}

func TestSelfDeleteAlwaysRejected(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	admin := seedPfleger(t, store, "Chef", true)

	err := svc.DeletePfleger(ctx, Viewer{ID: admin.ID, Admin: true}, admin.ID)
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if _, err := store.FindPfleger(ctx, admin.ID); err != nil {
		t.Fatalf("account should be untouched: %v", err)
	}
}

func TestPflegerManagementIsAdminOnly(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	user := seedPfleger(t, store, "Anna", false)

	if _, err := svc.ListPfleger(ctx, Viewer{ID: user.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if _, err := svc.ListPfleger(ctx, Viewer{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for guest, got %v", err)
	}
	if _, err := svc.CreatePfleger(ctx, Viewer{ID: user.ID}, "Neu", "Geheim123!", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin create, got %v", err)
	}
}

func TestCreatePflegerHashesPassword(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	admin := seedPfleger(t, store, "Chef", true)

	created, err := svc.CreatePfleger(ctx, Viewer{ID: admin.ID, Admin: true}, "Anna", "Geheim123!", false)
	if err != nil {
		t.Fatal(err)
	}
	if created.PasswordHash != "" {
		t.Fatal("password hash leaked in response")
	}
	stored, err := store.FindPfleger(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "Geheim123!" {
		t.Fatal("password stored unhashed")
	}
	if err := VerifyPassword(stored.PasswordHash, "Geheim123!"); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if err := VerifyPassword(stored.PasswordHash, "falsch"); err == nil {
		t.Fatal("wrong password verified")
	}
}

func TestDuplicatePflegerNameConflicts(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	admin := seedPfleger(t, store, "Chef", true)

	if _, err := svc.CreatePfleger(ctx, Viewer{ID: admin.ID, Admin: true}, "Anna", "Geheim123!", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePfleger(ctx, Viewer{ID: admin.ID, Admin: true}, "anna", "Geheim123!", false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}
}
