package store

import (
	"sync"

	"github.com/rs/zerolog"
)

// Op is the kind of write a Change reports.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change describes one committed write.
type Change struct {
	Collection Collection
	Op         Op
	ID         int64
}

type hub struct {
	mu       sync.Mutex
	log      zerolog.Logger
	next     int
	subs     map[Collection]map[int]chan Change
	watchers map[int]func(Change)
	closed   bool
}

func newHub(log zerolog.Logger) *hub {
	return &hub{
		log:      log,
		subs:     make(map[Collection]map[int]chan Change),
		watchers: make(map[int]func(Change)),
	}
}

func (h *hub) watch(fn func(Change)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}
	key := h.next
	h.next++
	h.watchers[key] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers, key)
	}
}

func (h *hub) subscribe(c Collection, buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	key := h.next
	h.next++
	if h.subs[c] == nil {
		h.subs[c] = make(map[int]chan Change)
	}
	h.subs[c][key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[c][key]; ok {
				delete(h.subs[c], key)
				close(sub)
			}
		})
	}
}

func (h *hub) publish(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, fn := range h.watchers {
		fn(change)
	}
	for _, ch := range h.subs[change.Collection] {
		select {
		case ch <- change:
		default:
			h.log.Warn().
				Str("collection", string(change.Collection)).
				Int64("id", change.ID).
				Msg("subscriber buffer full, change dropped")
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clear(h.watchers)
	for c, subs := range h.subs {
		for key, ch := range subs {
			close(ch)
			delete(subs, key)
		}
		delete(h.subs, c)
	}
}
