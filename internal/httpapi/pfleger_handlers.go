package httpapi

import (
	"net/http"
	"strings"

	"pflegelog.org/internal/pflege"
)

type createPflegerRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

type updatePflegerRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	Admin    *bool   `json:"admin"`
	Password *string `json:"password"`
}

func (a *API) handlePflegerCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.requireLogin(a.createPfleger)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handlePflegerResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/pfleger/")
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if rest == "alle" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.requireLogin(a.listPfleger)(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.updatePfleger(w, r, rest)
		})(w, r)
	case http.MethodDelete:
		a.requireLogin(func(w http.ResponseWriter, r *http.Request) {
			a.deletePfleger(w, r, rest)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listPfleger(w http.ResponseWriter, r *http.Request) {
	list, err := a.pflege.ListPfleger(r.Context(), viewer(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createPfleger(w http.ResponseWriter, r *http.Request) {
	var req createPflegerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.pflege.CreatePfleger(r.Context(), viewer(r), req.Name, req.Password, req.Admin)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updatePfleger(w http.ResponseWriter, r *http.Request, id string) {
	var req updatePflegerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, r, http.StatusBadRequest, "id in body does not match id in path")
		return
	}
	updated, err := a.pflege.UpdatePfleger(r.Context(), viewer(r), id, pflege.PflegerUpdate{
		Name:     req.Name,
		Admin:    req.Admin,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deletePfleger(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.pflege.DeletePfleger(r.Context(), viewer(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
