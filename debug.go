package fabric

import (
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"

	"github.com/dmitrymomot/fabric/core/bus"
	"github.com/dmitrymomot/fabric/core/workqueue"
)

// Snapshot is a point-in-time view of hub state for debugging.
type Snapshot struct {
	TakenAt  time.Time               `json:"taken_at"`
	Stats    Stats                   `json:"stats"`
	Bindings []bus.BindingInfo       `json:"bindings"`
	Pending  []bus.PendingRequest    `json:"pending"`
	Channels []workqueue.ChannelInfo `json:"channels"`
	Leases   []workqueue.LeaseInfo   `json:"leases"`
}

// JSON encodes the snapshot as indented JSON.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Snapshot captures bindings, outstanding requests, channels and leases.
// Each component is read under its own lock, so the parts are individually
// consistent but not taken at the same instant.
func (h *Hub) Snapshot() (Snapshot, error) {
	if !h.cfg.Debug {
		return Snapshot{}, ErrDebugDisabled
	}

	return Snapshot{
		TakenAt:  time.Now(),
		Stats:    h.Stats(),
		Bindings: h.bus.Bindings(),
		Pending:  h.bus.Pending(),
		Channels: h.queue.Channels(),
		Leases:   h.queue.Leases(),
	}, nil
}

// Dump pretty-prints a snapshot to w.
func (h *Hub) Dump(w io.Writer) error {
	snap, err := h.Snapshot()
	if err != nil {
		return err
	}

	printer := pp.New()
	printer.SetColoringEnabled(false)
	_, err = printer.Fprintln(w, snap)
	return err
}
