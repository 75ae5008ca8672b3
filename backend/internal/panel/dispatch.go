package panel

import (
	"errors"
	"fmt"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/edit"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/locale"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/wire"
)

var errBadMessage = errors.New("malformed message")

// AxisCandidates answers an axis_candidates request.
type AxisCandidates struct {
	Axis       axis.Axis        `json:"axis"`
	Candidates []axis.Candidate `json:"candidates"`
}

// AxisConfig is the axis table as shown to the client.
type AxisConfig struct {
	AxisConfig map[string]axis.Record `json:"axis_config"`
}

// Notice is a localized status line.
type Notice struct {
	Message string `json:"message"`
}

const EventNotice = "notice"

// HandleMessage runs one client message to completion.
func (p *Panel) HandleMessage(msg wire.ClientMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err := p.dispatch(msg); err != nil {
		p.fail(msg.Type, err)
	}
}

func (p *Panel) dispatch(msg wire.ClientMessage) error {
	switch msg.Type {
	case wire.EventResize:
		var m wire.Resize
		if err := decode(msg, &m); err != nil {
			return err
		}
		p.router.SetSurfaceSize(m.Width, m.Height)

	case wire.EventPointer:
		var m wire.Pointer
		if err := decode(msg, &m); err != nil {
			return err
		}
		return p.pointer(m)

	case wire.EventDoubleTap:
		var m wire.DoubleTap
		if err := decode(msg, &m); err != nil {
			return err
		}
		p.router.DoubleTap(m.X, m.Y)

	case wire.EventSetEditMode:
		var m wire.SetEditMode
		if err := decode(msg, &m); err != nil {
			return err
		}
		p.editor.SetEditMode(m.Enabled)

	case wire.EventAddControl:
		var draft surface.Control
		if err := decode(msg, &draft); err != nil {
			return err
		}
		ctx, cancel := p.requestContext()
		defer cancel()
		c, err := p.editor.Add(ctx, draft)
		if c != nil {
			p.editor.Open(c)
		}
		return err

	case wire.EventEditControl:
		var patch edit.Patch
		if err := decode(msg, &patch); err != nil {
			return err
		}
		ctx, cancel := p.requestContext()
		defer cancel()
		_, err := p.editor.Edit(ctx, patch)
		return err

	case wire.EventDeleteControl:
		var m wire.DeleteControl
		if err := decode(msg, &m); err != nil {
			return err
		}
		ctx, cancel := p.requestContext()
		defer cancel()
		return p.editor.Delete(ctx, m.ID)

	case wire.EventMoveControl:
		var m wire.MoveControl
		if err := decode(msg, &m); err != nil {
			return err
		}
		return p.editor.Move(m.ID, m.X, m.Y)

	case wire.EventResizeControl:
		var m wire.ResizeControl
		if err := decode(msg, &m); err != nil {
			return err
		}
		return p.editor.Resize(m.ID, m.Width, m.Height)

	case wire.EventSaveLayout:
		p.editor.SaveLayout()

	case wire.EventBindAxis:
		var m wire.BindAxis
		if err := decode(msg, &m); err != nil {
			return err
		}
		if err := p.editor.BindAxis(m); err != nil {
			return err
		}
		p.sendAxisConfig()

	case wire.EventAxisCandidates:
		var m wire.AxisCandidatesRequest
		if err := decode(msg, &m); err != nil {
			return err
		}
		cands, err := p.editor.Candidates(m.Axis)
		if err != nil {
			return err
		}
		p.client.Emit(wire.EventAxisCandidates, AxisCandidates{Axis: axis.Axis(m.Axis), Candidates: cands})

	case wire.EventSaveDrivingConfig:
		ctx, cancel := p.requestContext()
		defer cancel()
		if err := p.editor.SaveDrivingConfig(ctx); err != nil {
			return err
		}
		p.sendAxisConfig()
		p.notice(locale.DrivingConfigSaved)

	case wire.EventGyroPermission:
		var m wire.GyroPermission
		if err := decode(msg, &m); err != nil {
			return err
		}
		p.gyroAllowed = m.Granted
		if !m.Granted {
			p.notice(locale.GyroPermissionDenied)
		}

	case wire.EventGyroData:
		var m wire.GyroData
		if err := decode(msg, &m); err != nil {
			return err
		}
		if p.mode == layout.ModeDriving && p.gyroAllowed && p.isMain {
			p.device.Emit(wire.EventGyroData, m)
		}

	case wire.EventSetMainDevice:
		var m wire.SetMainDevice
		if err := decode(msg, &m); err != nil {
			return err
		}
		p.device.Emit(wire.EventSetMainDevice, m)

	case wire.EventHideOverlay:
		p.device.Emit(wire.EventHideOverlay, nil)

	default:
		p.log.Debug("unknown message", "type", msg.Type)
	}
	return nil
}

func (p *Panel) pointer(m wire.Pointer) error {
	switch m.Phase {
	case wire.PhaseDown:
		p.router.Down(m.ID, m.X, m.Y)
	case wire.PhaseMove:
		p.router.Move(m.ID, m.X, m.Y)
	case wire.PhaseUp:
		p.router.Up(m.ID)
	case wire.PhaseCancel:
		p.router.Cancel(m.ID)
	case wire.PhaseLeave:
		p.router.Leave(m.ID)
	default:
		return fmt.Errorf("%w: pointer phase %q", errBadMessage, m.Phase)
	}
	return nil
}

// handleHost applies a reply from the host. Callers hold p.mu.
func (p *Panel) handleHost(event string, payload any) {
	if p.closed {
		return
	}
	switch event {
	case wire.EventLayoutSaved:
		m, _ := payload.(wire.LayoutSaved)
		if m.Status != layout.StatusSuccess {
			p.client.Emit(wire.EventError, wire.Error{Message: p.tr.T(locale.LayoutSaveFailed, nil)})
			return
		}
		p.editor.LayoutSaved()
		p.client.Emit(wire.EventLayoutSaved, m)
		p.notice(locale.LayoutSaved)

	case wire.EventMainStatusChanged:
		m, _ := payload.(wire.MainStatusChanged)
		p.isMain = m.IsMain
		p.client.Emit(event, m)

	default:
		p.client.Emit(event, payload)
	}
}

func (p *Panel) sendAxisConfig() {
	p.client.Emit(wire.EventAxisConfig, AxisConfig{AxisConfig: p.axes.Table().Records()})
}

func (p *Panel) notice(id string) {
	p.client.Emit(EventNotice, Notice{Message: p.tr.T(id, nil)})
}

// fail reports err to the client in its language.
func (p *Panel) fail(msgType string, err error) {
	p.log.Warn("request failed", "type", msgType, "error", err)
	var data map[string]any
	id := messageID(err)
	if id == locale.BadMessage {
		data = map[string]any{"Type": msgType}
	}
	p.client.Emit(wire.EventError, wire.Error{Message: p.tr.T(id, data)})
}

func messageID(err error) string {
	switch {
	case errors.Is(err, errBadMessage):
		return locale.BadMessage
	case errors.Is(err, edit.ErrEditModeRequired):
		return locale.EditModeRequired
	case errors.Is(err, edit.ErrNoControl):
		return locale.NoControl
	case errors.Is(err, edit.ErrPersist):
		return locale.PersistFailed
	case errors.Is(err, axis.ErrSliderInUse):
		return locale.SliderInUse
	case errors.Is(err, axis.ErrDuplicateSlider):
		return locale.DuplicateSlider
	case errors.Is(err, axis.ErrUnknownAxis):
		return locale.UnknownAxis
	case errors.Is(err, axis.ErrUnknownChannel), errors.Is(err, axis.ErrUnknownSourceType),
		errors.Is(err, axis.ErrMissingSourceID):
		return locale.InvalidSource
	case errors.Is(err, surface.ErrNotFound):
		return locale.ControlNotFound
	}
	return locale.Failed
}

func decode(msg wire.ClientMessage, v any) error {
	if err := msg.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", errBadMessage, msg.Type, err)
	}
	return nil
}
