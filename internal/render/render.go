// Package render keeps a drawing backend in sync with the bodies of a
// physics session.
//
// The [Adapter] owns an explicit map from (body, link, shape) to the
// backend's handle. Each [Adapter.Sync] creates a handle for every visual
// shape it has not seen, moves every known one to its link's current pose
// and drops handles whose body is gone. Only visual shape records and link
// poses are consumed; the backend never sees the engine.
package render

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var ErrUnknownHandle = errors.New("render: unknown handle")

type Handle int

// Backend draws visual shapes. Poses passed to Update are world poses of
// the shape itself, link frame and local offset already applied.
type Backend interface {
	Create(shape engine.VisualShape) (Handle, error)
	Update(h Handle, pose spatial.Pose) error
	Remove(h Handle) error
}

// Key identifies one visual shape: the Shape-th visual of a link.
type Key struct {
	Body  physics.BodyID
	Link  engine.LinkIndex
	Shape int
}

type Option func(*Adapter)

func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

type Adapter struct {
	p       *physics.Physics
	backend Backend
	handles map[Key]Handle
	log     *zap.Logger
}

func NewAdapter(p *physics.Physics, backend Backend, opts ...Option) *Adapter {
	a := &Adapter{
		p:       p,
		backend: backend,
		handles: make(map[Key]Handle),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sync brings the backend up to date with every body in the session.
func (a *Adapter) Sync() error {
	bodies, err := a.p.Bodies()
	if err != nil {
		return err
	}
	alive := make(map[physics.BodyID]bool, len(bodies))
	for _, id := range bodies {
		alive[id] = true
		if err := a.syncBody(id); err != nil {
			return fmt.Errorf("render: body %d: %w", id, err)
		}
	}
	for key, h := range a.handles {
		if alive[key.Body] {
			continue
		}
		if err := a.backend.Remove(h); err != nil {
			return err
		}
		delete(a.handles, key)
		a.log.Debug("removed shape", zap.Int("body", int(key.Body)), zap.Int("link", int(key.Link)))
	}
	return nil
}

func (a *Adapter) syncBody(id physics.BodyID) error {
	shapes, err := a.p.VisualShapes(id)
	if err != nil {
		return err
	}
	frames := make(map[engine.LinkIndex]spatial.Pose)
	counts := make(map[engine.LinkIndex]int)
	for _, vs := range shapes {
		key := Key{Body: id, Link: vs.Link, Shape: counts[vs.Link]}
		counts[vs.Link]++

		frame, ok := frames[vs.Link]
		if !ok {
			if frame, err = a.p.LinkPose(engine.LinkRef(id, vs.Link)); err != nil {
				return err
			}
			frames[vs.Link] = frame
		}

		h, ok := a.handles[key]
		if !ok {
			if h, err = a.backend.Create(vs); err != nil {
				return err
			}
			a.handles[key] = h
		}
		if err := a.backend.Update(h, frame.Multiply(vs.LocalPose)); err != nil {
			return err
		}
	}
	return nil
}

// Handle returns the backend handle for key, if one was created.
func (a *Adapter) Handle(key Key) (Handle, bool) {
	h, ok := a.handles[key]
	return h, ok
}

// Keys lists the tracked shapes in body, link, shape order.
func (a *Adapter) Keys() []Key {
	keys := make([]Key, 0, len(a.handles))
	for k := range a.handles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Body != keys[j].Body {
			return keys[i].Body < keys[j].Body
		}
		if keys[i].Link != keys[j].Link {
			return keys[i].Link < keys[j].Link
		}
		return keys[i].Shape < keys[j].Shape
	})
	return keys
}
