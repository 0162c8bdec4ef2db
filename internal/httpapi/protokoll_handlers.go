package httpapi

import (
	"net/http"
	"strings"

	"pflegelog.org/internal/pflege"
)

type createProtokollRequest struct {
	Patient   string       `json:"patient"`
	Datum     pflege.Datum `json:"datum"`
	Public    bool         `json:"public"`
	Closed    bool         `json:"closed"`
	Ersteller string       `json:"ersteller"`
}

type updateProtokollRequest struct {
	ID      string        `json:"id"`
	Patient *string       `json:"patient"`
	Datum   *pflege.Datum `json:"datum"`
	Public  *bool         `json:"public"`
	Closed  *bool         `json:"closed"`
}

func (a *API) handleProtokollCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.requireLogin(a.createProtokoll)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleProtokollResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/protokoll/")
	if rest == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if rest == "alle" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.optionalLogin(a.listProtokolle)(w, r)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/eintraege"); ok {
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.optionalLogin(func(w http.ResponseWriter, r *http.Request) {
			a.listProtokollEintraege(w, r, id)
		})(w, r)
		return
	}

	if strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.optionalLogin(func(w http.ResponseWriter, r *http.Request) {
			a.getProtokoll(w, r, rest)
		})(w, r)
	case http.MethodPut:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.updateProtokoll(w, r, rest)
		})(w, r)
	case http.MethodDelete:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.deleteProtokoll(w, r, rest)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listProtokolle(w http.ResponseWriter, r *http.Request) {
	list, err := a.pflege.ListProtokolle(r.Context(), viewer(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getProtokoll(w http.ResponseWriter, r *http.Request, id string) {
	p, err := a.pflege.GetProtokoll(r.Context(), viewer(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) listProtokollEintraege(w http.ResponseWriter, r *http.Request, id string) {
	list, err := a.pflege.ListEintraege(r.Context(), viewer(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createProtokoll(w http.ResponseWriter, r *http.Request) {
	var req createProtokollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.pflege.CreateProtokoll(r.Context(), viewer(r), pflege.Protokoll{
		Patient:   req.Patient,
		Datum:     req.Datum,
		Public:    req.Public,
		Closed:    req.Closed,
		Ersteller: req.Ersteller,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateProtokoll(w http.ResponseWriter, r *http.Request, id string) {
	var req updateProtokollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, r, http.StatusBadRequest, "id in body does not match id in path")
		return
	}
	updated, err := a.pflege.UpdateProtokoll(r.Context(), viewer(r), id, pflege.ProtokollUpdate{
		Patient: req.Patient,
		Datum:   req.Datum,
		Public:  req.Public,
		Closed:  req.Closed,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteProtokoll(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.pflege.DeleteProtokoll(r.Context(), viewer(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
