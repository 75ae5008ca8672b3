package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/surface"
)

const maxBody = 1 << 20

// Layouts is the persistence the API fronts.
type Layouts interface {
	Document(ctx context.Context) (layout.Document, error)
	AddControl(ctx context.Context, c surface.Control) (string, error)
	UpdateControl(ctx context.Context, c surface.Control) error
	DeleteControl(ctx context.Context, id string) error
	UpdateDrivingConfig(ctx context.Context, s axis.Settings) error
}

type api struct {
	layouts  Layouts
	defaults layout.Defaults
	log      *slog.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+layout.PathConfig, a.config)
	mux.HandleFunc("POST "+layout.PathAddButton, a.addButton)
	mux.HandleFunc("POST "+layout.PathUpdateButton, a.updateButton)
	mux.HandleFunc("POST "+layout.PathDeleteButton, a.deleteButton)
	mux.HandleFunc("POST "+layout.PathUpdateDrivingConfig, a.updateDrivingConfig)
}

func (a *api) config(w http.ResponseWriter, r *http.Request) {
	doc, err := a.layouts.Document(r.Context())
	if err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Complete(a.defaults))
}

func (a *api) addButton(w http.ResponseWriter, r *http.Request) {
	var c surface.Control
	if !a.decode(w, r, &c) {
		return
	}
	c.ID = ""
	c.Normalize()
	id, err := a.layouts.AddControl(r.Context(), c)
	if err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, layout.Response{Status: layout.StatusSuccess, ID: id})
}

// updateButton merges the posted fields onto the stored control. Fields the
// body leaves out keep their stored values.
func (a *api) updateButton(w http.ResponseWriter, r *http.Request) {
	body, ok := a.read(w, r)
	if !ok {
		return
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &ref); err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	if ref.ID == "" {
		a.fail(w, http.StatusBadRequest, layout.ErrMissingID)
		return
	}
	doc, err := a.layouts.Document(r.Context())
	if err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	c, _ := doc.Find(ref.ID)
	if err := json.Unmarshal(body, &c); err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	c.Normalize()
	if err := a.layouts.UpdateControl(r.Context(), c); err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, layout.Response{Status: layout.StatusSuccess, ID: c.ID})
}

func (a *api) deleteButton(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		a.fail(w, http.StatusBadRequest, layout.ErrMissingID)
		return
	}
	if err := a.layouts.DeleteControl(r.Context(), req.ID); err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, layout.Response{Status: layout.StatusSuccess})
}

func (a *api) updateDrivingConfig(w http.ResponseWriter, r *http.Request) {
	var s axis.Settings
	if !a.decode(w, r, &s) {
		return
	}
	if err := a.layouts.UpdateDrivingConfig(r.Context(), s); err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, layout.Response{Status: layout.StatusSuccess})
}

func (a *api) read(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return nil, false
	}
	return body, true
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := a.read(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (a *api) fail(w http.ResponseWriter, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		level = slog.LevelError
	}
	a.log.Log(context.Background(), level, "api request failed", "status", status, "error", err)
	writeJSON(w, status, layout.Response{Status: layout.StatusError, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
