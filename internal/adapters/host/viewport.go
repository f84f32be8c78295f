package host

import (
	"sync"

	"github.com/tari-project/tapplet-host/internal/domain"
)

// Viewport is the container box a tapplet is rendered into. The embedding
// shell sets its size; mounts subscribe to resize notifications.
type Viewport struct {
	mu     sync.Mutex
	size   domain.WindowSize
	nextID int
	subs   map[int]chan struct{}
}

// NewViewport creates a viewport with an initial size
func NewViewport(size domain.WindowSize) *Viewport {
	return &Viewport{size: size, subs: make(map[int]chan struct{})}
}

// Size returns the current measured size
func (v *Viewport) Size() domain.WindowSize {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Resize updates the size and notifies every subscriber. Notifications do
// not queue: a subscriber that has not consumed the previous one sees one.
func (v *Viewport) Resize(size domain.WindowSize) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
	for _, ch := range v.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a resize listener; call the returned func to remove it
func (v *Viewport) Subscribe() (<-chan struct{}, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	ch := make(chan struct{}, 1)
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
		})
	}
}

// Listeners returns the number of registered resize listeners
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
