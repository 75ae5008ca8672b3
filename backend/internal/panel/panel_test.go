package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/locale"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/wire"
)

type emitted struct {
	event   string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) Emit(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{event, payload})
}

func (r *recorder) all(event string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (r *recorder) last(event string) (any, bool) {
	all := r.all(event)
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1], true
}

type fakeHost struct {
	recorder
	connected    map[string]wire.Emitter
	disconnected []string
	askOnConnect bool
}

func (h *fakeHost) Connect(id string, out wire.Emitter) {
	h.mu.Lock()
	if h.connected == nil {
		h.connected = make(map[string]wire.Emitter)
	}
	h.connected[id] = out
	h.mu.Unlock()
	if h.askOnConnect {
		out.Emit(wire.EventAskMainDevice, wire.AskMainDevice{CurrentMain: false})
	}
}

func (h *fakeHost) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, id)
}

func (h *fakeHost) Device(string) wire.Emitter { return h }

var errOffline = errors.New("offline")

type fakePersistence struct {
	fail    bool
	added   int
	driving []axis.Settings
}

func (f *fakePersistence) AddControl(context.Context, surface.Control) (string, error) {
	if f.fail {
		return "", errOffline
	}
	f.added++
	return "new" + string(rune('0'+f.added)), nil
}

func (f *fakePersistence) UpdateControl(context.Context, surface.Control) error {
	if f.fail {
		return errOffline
	}
	return nil
}

func (f *fakePersistence) DeleteControl(context.Context, string) error {
	if f.fail {
		return errOffline
	}
	return nil
}

func (f *fakePersistence) UpdateDrivingConfig(_ context.Context, s axis.Settings) error {
	if f.fail {
		return errOffline
	}
	f.driving = append(f.driving, s)
	return nil
}

type fixture struct {
	panel   *Panel
	client  *recorder
	host    *fakeHost
	persist *fakePersistence
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	f := &fixture{client: &recorder{}, host: &fakeHost{}, persist: &fakePersistence{}}
	cfg := layout.Config{
		Mode: mode,
		Document: layout.Document{
			Buttons: []surface.Control{
				{ID: "btn1", Type: surface.KindButton, X: 10, Y: 10, Width: 100, Height: 50, Label: "Jump", Keys: []string{"space"}},
				{ID: "throttle", Type: surface.KindSlider, X: 200, Y: 10, Width: 200, Height: 50, Label: "Gas",
					Orientation: surface.Horizontal, RangeMode: surface.Unipolar, Axis: string(axis.RightTrigger)},
			},
		},
	}
	f.panel = New("c1", f.client, Options{
		Config:  cfg,
		Persist: f.persist,
		Host:    f.host,
	})
	t.Cleanup(f.panel.Close)
	return f
}

func (f *fixture) send(t *testing.T, typ string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	f.panel.HandleMessage(wire.ClientMessage{Type: typ, Data: raw})
}

func (f *fixture) lastError(t *testing.T) string {
	t.Helper()
	p, ok := f.client.last(wire.EventError)
	require.True(t, ok, "expected an error message")
	return p.(wire.Error).Message
}

func TestNewSendsConfigAndMigrates(t *testing.T) {
	f := newFixture(t, layout.ModeDriving)

	p, ok := f.client.last(wire.EventConfig)
	require.True(t, ok)
	assert.Equal(t, layout.ModeDriving, p.(layout.Config).Mode)

	ac, ok := f.client.last(wire.EventAxisConfig)
	require.True(t, ok)
	assert.Equal(t, "slider", ac.(AxisConfig).AxisConfig[string(axis.RightTrigger)].SourceType)

	a, bound := f.panel.axes.BoundAxis("throttle")
	require.True(t, bound)
	assert.Equal(t, axis.RightTrigger, a)

	c, _ := f.panel.store.Lookup("throttle")
	assert.Equal(t, string(axis.RightTrigger), f.panel.caption(c))
}

func TestPointerForwardsToHost(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventPointer, wire.Pointer{Phase: wire.PhaseDown, ID: 1, X: 20, Y: 20})
	f.send(t, wire.EventPointer, wire.Pointer{Phase: wire.PhaseUp, ID: 1})

	down, ok := f.host.last(wire.EventButtonDown)
	require.True(t, ok)
	assert.Equal(t, wire.ButtonDown{ID: "btn1", Label: "Jump"}, down)
	up, ok := f.host.last(wire.EventButtonUp)
	require.True(t, ok)
	assert.Equal(t, wire.ButtonUp{ID: "btn1"}, up)
	assert.Empty(t, f.client.all(wire.EventButtonDown), "control events never go back to the client")
}

func TestPointerCancelCommitsLikeUp(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventPointer, wire.Pointer{Phase: wire.PhaseDown, ID: 3, X: 20, Y: 20})
	f.send(t, wire.EventPointer, wire.Pointer{Phase: wire.PhaseCancel, ID: 3})
	assert.Len(t, f.host.all(wire.EventButtonUp), 1)
	assert.Equal(t, 0, f.panel.router.Routes())
}

func TestMalformedMessages(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)

	f.send(t, wire.EventPointer, wire.Pointer{Phase: "hover", ID: 1})
	assert.Equal(t, locale.BadMessage, f.lastError(t))

	f.panel.HandleMessage(wire.ClientMessage{Type: wire.EventResize, Data: json.RawMessage(`"wide"`)})
	assert.Equal(t, locale.BadMessage, f.lastError(t))

	f.send(t, "teleport", nil)
	assert.Len(t, f.client.all(wire.EventError), 2, "unknown types are ignored")
}

func TestEditingRequiresEditMode(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventAddControl, surface.Control{Type: surface.KindButton, Width: 80, Height: 80})
	assert.Equal(t, locale.EditModeRequired, f.lastError(t))
	assert.Equal(t, 2, f.panel.store.Len())
}

func TestAddControlOpensEditor(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventResize, wire.Resize{Width: 800, Height: 600})
	f.send(t, wire.EventSetEditMode, wire.SetEditMode{Enabled: true})
	f.send(t, wire.EventAddControl, surface.Control{Type: surface.KindButton, Width: 80, Height: 80})

	require.Equal(t, 3, f.panel.store.Len())
	assert.Equal(t, 1, f.persist.added)
	_, opened := f.client.last(wire.EventOpenEditor)
	assert.True(t, opened)
	assert.Empty(t, f.client.all(wire.EventError))
}

func TestAddControlPersistFailure(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.persist.fail = true
	f.send(t, wire.EventSetEditMode, wire.SetEditMode{Enabled: true})
	f.send(t, wire.EventAddControl, surface.Control{Type: surface.KindButton, Width: 80, Height: 80})

	assert.Equal(t, locale.PersistFailed, f.lastError(t))
	assert.Equal(t, 3, f.panel.store.Len(), "the pending control stays")
}

func TestMoveAndResizeControl(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventResize, wire.Resize{Width: 800, Height: 600})
	f.send(t, wire.EventSetEditMode, wire.SetEditMode{Enabled: true})
	f.send(t, wire.EventMoveControl, wire.MoveControl{ID: "btn1", X: 790, Y: 300})
	f.send(t, wire.EventResizeControl, wire.ResizeControl{ID: "btn1", Width: 500, Height: 10})

	c, _ := f.panel.store.Lookup("btn1")
	assert.Equal(t, 700.0, c.X)
	assert.Equal(t, 300.0, c.Y)
	assert.Equal(t, surface.MaxSize, c.Width)
	assert.Equal(t, surface.MinSize, c.Height)

	f.send(t, wire.EventDeleteControl, wire.DeleteControl{ID: "ghost"})
	assert.Equal(t, locale.ControlNotFound, f.lastError(t))
}

func TestBindAxisAndSave(t *testing.T) {
	f := newFixture(t, layout.ModeDriving)

	f.send(t, wire.EventBindAxis, wire.BindAxis{Axis: string(axis.LeftX), SourceType: "slider", SourceID: "throttle"})
	assert.Equal(t, locale.SliderInUse, f.lastError(t))

	f.send(t, wire.EventBindAxis, wire.BindAxis{Axis: "left_z", SourceType: "gyro", SourceID: "gamma"})
	assert.Equal(t, locale.UnknownAxis, f.lastError(t))

	f.send(t, wire.EventBindAxis, wire.BindAxis{Axis: string(axis.LeftX), SourceType: "gyro", SourceID: "gamma"})
	p, ok := f.client.last(wire.EventAxisConfig)
	require.True(t, ok)
	rec := p.(AxisConfig).AxisConfig[string(axis.LeftX)]
	assert.Equal(t, string(axis.SourceGyro), rec.SourceType)

	f.send(t, wire.EventAxisCandidates, wire.AxisCandidatesRequest{Axis: string(axis.LeftTrigger)})
	p, ok = f.client.last(wire.EventAxisCandidates)
	require.True(t, ok)
	cands := p.(AxisCandidates).Candidates
	require.Len(t, cands, 1)
	assert.False(t, cands[0].Available)
	assert.Equal(t, axis.RightTrigger, cands[0].BoundTo)

	f.send(t, wire.EventSaveDrivingConfig, nil)
	require.Len(t, f.persist.driving, 1)
	assert.Equal(t, axis.JoystickXbox360, f.persist.driving[0].JoystickType)
	n, ok := f.client.last(EventNotice)
	require.True(t, ok)
	assert.Equal(t, locale.DrivingConfigSaved, n.(Notice).Message)
}

func TestGyroNeedsPermissionAndMain(t *testing.T) {
	f := newFixture(t, layout.ModeDriving)
	gyro := wire.GyroData{Alpha: 10, Beta: 20, Gamma: 30}

	f.send(t, wire.EventGyroData, gyro)
	assert.Empty(t, f.host.all(wire.EventGyroData))

	f.send(t, wire.EventGyroPermission, wire.GyroPermission{Granted: true})
	f.send(t, wire.EventGyroData, gyro)
	assert.Empty(t, f.host.all(wire.EventGyroData), "not the main device yet")

	f.send(t, wire.EventSetMainDevice, wire.SetMainDevice{IsMain: true})
	_, asked := f.host.last(wire.EventSetMainDevice)
	assert.True(t, asked)
	f.panel.mu.Lock()
	f.panel.handleHost(wire.EventMainStatusChanged, wire.MainStatusChanged{IsMain: true})
	f.panel.mu.Unlock()

	f.send(t, wire.EventGyroData, gyro)
	assert.Equal(t, []any{gyro}, f.host.all(wire.EventGyroData))

	f.send(t, wire.EventGyroPermission, wire.GyroPermission{Granted: false})
	n, _ := f.client.last(EventNotice)
	assert.Equal(t, locale.GyroPermissionDenied, n.(Notice).Message)
}

func TestLayoutSavedReply(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		editMode bool
	}{
		{"success leaves edit mode", layout.StatusSuccess, false},
		{"error keeps edit mode", layout.StatusError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, layout.ModeCustomKeys)
			f.send(t, wire.EventSetEditMode, wire.SetEditMode{Enabled: true})
			f.send(t, wire.EventSaveLayout, nil)

			saved, ok := f.host.last(wire.EventSaveLayout)
			require.True(t, ok)
			assert.Len(t, saved.([]surface.Control), 2)

			f.panel.mu.Lock()
			f.panel.handleHost(wire.EventLayoutSaved, wire.LayoutSaved{Status: tt.status})
			f.panel.mu.Unlock()

			assert.Equal(t, tt.editMode, f.panel.editor.EditMode())
			if tt.status == layout.StatusError {
				assert.Equal(t, locale.LayoutSaveFailed, f.lastError(t))
			} else {
				_, ok := f.client.last(wire.EventLayoutSaved)
				assert.True(t, ok)
			}
		})
	}
}

func TestMailboxDeliversHostReplies(t *testing.T) {
	client, host := &recorder{}, &fakeHost{askOnConnect: true}
	p := New("c9", client, Options{
		Config: layout.Config{Mode: layout.ModeDriving},
		Host:   host,
	})
	p.Start()

	assert.Eventually(t, func() bool {
		_, ok := client.last(wire.EventAskMainDevice)
		return ok
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		_, ok := client.last(wire.EventFrame)
		return ok
	}, time.Second, time.Millisecond, "initial frame painted")

	p.Close()
	p.Close()
	assert.Equal(t, []string{"c9"}, host.disconnected)
}

func TestPaintCoalescesChanges(t *testing.T) {
	f := newFixture(t, layout.ModeCustomKeys)
	f.send(t, wire.EventResize, wire.Resize{Width: 800, Height: 600})
	f.send(t, wire.EventPointer, wire.Pointer{Phase: wire.PhaseDown, ID: 1, X: 20, Y: 20})

	assert.True(t, f.panel.scheduler.Tick())
	assert.False(t, f.panel.scheduler.Tick())

	frames := f.client.all(wire.EventFrame)
	require.Len(t, frames, 1)
	frame := frames[0].(surface.Frame)
	assert.Equal(t, 800.0, frame.Width)
	require.Len(t, frame.Items, 2)
	assert.True(t, frame.Items[0].Active)
}

func TestMessageID(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{axis.ErrDuplicateSlider, locale.DuplicateSlider},
		{axis.ErrMissingSourceID, locale.InvalidSource},
		{errOffline, locale.Failed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, messageID(tt.err), tt.err.Error())
	}
}
