package layout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

func TestClient(t *testing.T) {
	var paths []string
	var deleted map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case PathConfig:
			_, _ = w.Write([]byte(`{"mode": "driving", "buttons": [{"id": "btn1", "type": "button", "width": "wide"}]}`))
		case PathAddButton:
			_ = json.NewEncoder(w).Encode(Response{Status: StatusSuccess, ID: "btn4"})
		case PathDeleteButton:
			_ = json.NewDecoder(r.Body).Decode(&deleted)
			_ = json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
		case PathUpdateDrivingConfig:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(Response{Status: StatusError, Message: "disk full"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	ctx := context.Background()

	cfg, warnings, err := c.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeDriving, cfg.Mode)
	assert.Empty(t, cfg.Buttons)
	assert.Len(t, warnings, 1)

	id, err := c.AddControl(ctx, surface.Control{Type: surface.KindButton})
	require.NoError(t, err)
	assert.Equal(t, "btn4", id)

	require.NoError(t, c.DeleteControl(ctx, "btn4"))
	assert.Equal(t, map[string]string{"id": "btn4"}, deleted)

	err = c.UpdateDrivingConfig(ctx, axis.Settings{})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "disk full")

	err = c.UpdateControl(ctx, surface.Control{ID: "btn1"})
	assert.ErrorIs(t, err, ErrRequestFailed)

	assert.Equal(t, []string{PathConfig, PathAddButton, PathDeleteButton, PathUpdateDrivingConfig, PathUpdateButton}, paths)
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	_, err := c.AddControl(context.Background(), surface.Control{})
	assert.ErrorIs(t, err, ErrRequestFailed)
}
