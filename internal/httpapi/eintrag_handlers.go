package httpapi

import (
	"net/http"
	"strings"

	"pflegelog.org/internal/pflege"
)

type createEintragRequest struct {
	Getraenk  string `json:"getraenk"`
	Menge     int    `json:"menge"`
	Kommentar string `json:"kommentar"`
	Protokoll string `json:"protokoll"`
	Ersteller string `json:"ersteller"`
}

type updateEintragRequest struct {
	ID        string  `json:"id"`
	Getraenk  *string `json:"getraenk"`
	Menge     *int    `json:"menge"`
	Kommentar *string `json:"kommentar"`
}

func (a *API) handleEintragCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.requireLogin(a.createEintrag)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleEintragResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/eintrag/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.optionalLogin(func(w http.ResponseWriter, r *http.Request) {
			a.getEintrag(w, r, id)
		})(w, r)
	case http.MethodPut:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.updateEintrag(w, r, id)
		})(w, r)
	case http.MethodDelete:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.deleteEintrag(w, r, id)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getEintrag(w http.ResponseWriter, r *http.Request, id string) {
	e, err := a.pflege.GetEintrag(r.Context(), viewer(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) createEintrag(w http.ResponseWriter, r *http.Request) {
	var req createEintragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.pflege.CreateEintrag(r.Context(), viewer(r), pflege.Eintrag{
		Getraenk:  req.Getraenk,
		Menge:     req.Menge,
		Kommentar: req.Kommentar,
		Protokoll: req.Protokoll,
		Ersteller: req.Ersteller,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateEintrag(w http.ResponseWriter, r *http.Request, id string) {
	var req updateEintragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, r, http.StatusBadRequest, "id in body does not match id in path")
		return
	}
	updated, err := a.pflege.UpdateEintrag(r.Context(), viewer(r), id, pflege.EintragUpdate{
		Getraenk:  req.Getraenk,
		Menge:     req.Menge,
		Kommentar: req.Kommentar,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteEintrag(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.pflege.DeleteEintrag(r.Context(), viewer(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
