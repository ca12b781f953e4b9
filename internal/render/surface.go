package render

import "sync"

// MarkerWidget is a stand-in map widget: it remembers the last driver
// coordinate pushed to it so a transport can expose it as data.
type MarkerWidget struct {
	mu       sync.Mutex
	lat, lng float64
	set      bool
}

func (m *MarkerWidget) SetDriverPosition(lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lat, m.lng = lat, lng
	m.set = true
}

// Position reports the last coordinate and whether one was ever set.
func (m *MarkerWidget) Position() (lat, lng float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lat, m.lng, m.set
}

// SurfaceRegistry keys rendered surfaces by session, so concurrent
// sessions never overwrite each other's output.
type SurfaceRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SlotBuffer
}

func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{sessions: make(map[string]*SlotBuffer)}
}

// Set replaces the session's surface with a freshly rendered one.
func (r *SurfaceRegistry) Set(sessionID string, buf *SlotBuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = buf
}

// Slots returns the session's last rendered snapshot, or nil when the
// session was never rendered.
func (r *SurfaceRegistry) Slots(sessionID string) map[string][]string {
	r.mu.RLock()
	buf := r.sessions[sessionID]
	r.mu.RUnlock()
	if buf == nil {
		return nil
	}
	return buf.Slots()
}

// SlotBuffer is an in-memory presentation surface: it collects rendered
// slots so a transport can hand them to the real UI as data.
type SlotBuffer struct {
	mu    sync.Mutex
	slots map[string][]string
}

func NewSlotBuffer() *SlotBuffer {
	return &SlotBuffer{slots: make(map[string][]string)}
}

func (b *SlotBuffer) SetSlot(name string, lines []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[name] = append([]string(nil), lines...)
}

// Slots returns a copy of everything rendered so far.
func (b *SlotBuffer) Slots() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]string, len(b.slots))
	for name, lines := range b.slots {
		out[name] = append([]string(nil), lines...)
	}
	return out
}
