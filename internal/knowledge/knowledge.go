// Package knowledge defines the read-only view of the lexical knowledge base
// and the shared handle the rest of the process goes through to reach it.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Pew-X/sensegate/internal/core"
)

// ErrUnavailable is returned when the backend could not be opened.
var ErrUnavailable = errors.New("knowledge base unavailable")

// Base resolves synsets by id.
//
// Synset accepts both BabelNet ids and resource ids such as "wn:00001740n".
// An id that does not resolve yields (nil, nil); errors are reserved for
// backend failures. Implementations must be safe for concurrent use.
type Base interface {
	Synset(ctx context.Context, id string) (*core.Synset, error)
	OutgoingEdges(ctx context.Context, synset *core.Synset, pointer core.Pointer) ([]core.Edge, error)
}

// Pinger is implemented by backends that can report their own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Opener builds a Base. It is called lazily by Handle.
type Opener func(ctx context.Context) (Base, error)

// Handle is the process-wide knowledge base handle. The backend is opened on
// first use and shared by every caller afterwards. A failed open is not
// remembered, the next call tries again.
type Handle struct {
	open  Opener
	mutex sync.Mutex
	base  Base
	group singleflight.Group
}

// NewHandle returns a handle that opens its backend with open.
func NewHandle(open Opener) *Handle {
	return &Handle{open: open}
}

// Static returns a handle around an already opened backend.
func Static(base Base) *Handle {
	return &Handle{base: base}
}

// Get returns the shared backend, opening it if needed. Concurrent callers
// share one open. A caller whose ctx ends first gets ErrUnavailable wrapping
// ctx.Err(), while the open carries on for the others.
func (h *Handle) Get(ctx context.Context) (Base, error) {
	h.mutex.Lock()
	base := h.base
	h.mutex.Unlock()

	if base != nil {
		return base, nil
	}
	if h.open == nil {
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}

	result := h.group.DoChan("open", func() (any, error) {
		return h.openShared(context.WithoutCancel(ctx))
	})
	select {
	case res := <-result:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
		}
		return res.Val.(Base), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}

func (h *Handle) openShared(ctx context.Context) (Base, error) {
	h.mutex.Lock()
	if h.base != nil {
		base := h.base
		h.mutex.Unlock()
		return base, nil
	}
	h.mutex.Unlock()

	base, err := h.open(ctx)
	if err != nil {
		return nil, err
	}

	h.mutex.Lock()
	h.base = base
	h.mutex.Unlock()
	return base, nil
}

// Opened reports whether the backend has been opened.
func (h *Handle) Opened() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.base != nil
}

// Ping checks the backend, opening it first if needed.
// Backends that do not implement Pinger are healthy once opened.
func (h *Handle) Ping(ctx context.Context) error {
	base, err := h.Get(ctx)
	if err != nil {
		return err
	}
	if p, ok := base.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend if it was opened and implements io.Closer.
func (h *Handle) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.base == nil {
		return nil
	}
	var err error
	if c, ok := h.base.(io.Closer); ok {
		err = c.Close()
	}
	h.base = nil
	return err
}
