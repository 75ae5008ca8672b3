package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/touchremote/backend/internal/gamepad"
	"github.com/soar/touchremote/backend/internal/wire"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster listens for pad state changes and broadcasts them to the hub.
type Broadcaster struct {
	hub        *Hub
	changes    <-chan gamepad.PadState
	log        *slog.Logger
	mu         sync.Mutex
	lastState  gamepad.PadState
	seq        int64
	deltaCount int64
}

func NewBroadcaster(h *Hub, changes <-chan gamepad.PadState, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		hub:     h,
		changes: changes,
		log:     logger,
	}
}

// Run starts the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case state, ok := <-b.changes:
			if !ok {
				return
			}
			if data := b.step(state); data != nil {
				b.hub.Broadcast(data)
			}

		case <-ticker.C:
			if data := b.sync(); data != nil {
				b.hub.Broadcast(data)
			}
		}
	}
}

// step folds a new state in and returns the message to broadcast, if any.
// Every deltaCountSync-th change goes out as a full message.
func (b *Broadcaster) step(state gamepad.PadState) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	delta := gamepad.ComputeDelta(b.lastState, state)
	b.lastState = state.Clone()
	if delta.IsEmpty() {
		return nil
	}

	b.seq++
	b.deltaCount++
	if b.deltaCount >= deltaCountSync {
		b.deltaCount = 0
		return b.encode(NewFullMessage(b.seq, &b.lastState))
	}
	return b.encode(NewDeltaMessage(b.seq, delta))
}

func (b *Broadcaster) sync() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastState.Connected {
		return nil
	}
	b.seq++
	return b.encode(NewFullMessage(b.seq, &b.lastState))
}

// SendInitialState sends the current full state to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	b.seq++
	state := b.lastState.Clone()
	data := b.encode(NewFullMessage(b.seq, &state))
	b.mu.Unlock()
	if data != nil {
		c.Send(data)
	}
}

// PublishOverlay fans an overlay change out to every surface.
func (b *Broadcaster) PublishOverlay(o wire.Overlay) {
	data, err := wire.Encode(wire.EventOverlay, o)
	if err != nil {
		b.log.Error("encode overlay", "error", err)
		return
	}
	b.hub.Broadcast(data)
}

func (b *Broadcaster) encode(msg *wire.Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("encode pad message", "error", err)
		return nil
	}
	return data
}
