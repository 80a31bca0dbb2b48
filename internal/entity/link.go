package entity

import (
	"sync"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type Link struct {
	id physics.LinkID
	p  *physics.Physics

	massOnce sync.Once
	mass     float64
	massErr  error
}

func newLink(p *physics.Physics, id physics.LinkID) *Link {
	return &Link{id: id, p: p}
}

func (l *Link) ID() physics.LinkID          { return l.id }
func (l *Link) Index() engine.LinkIndex     { return l.id.Link }
func (l *Link) Body() physics.BodyID        { return l.id.Body }
func (l *Link) String() string              { return l.id.String() }
func (l *Link) Name() (string, error)       { return l.p.LinkName(l.id) }
func (l *Link) Pose() (spatial.Pose, error) { return l.p.LinkPose(l.id) }

func (l *Link) LocalOffset() (spatial.Pose, error)  { return l.p.LinkLocalOffset(l.id) }
func (l *Link) CenterOfMass() (spatial.Pose, error) { return l.p.LinkCenterOfMass(l.id) }

// Mass is read once. Only the base link has a reliable mass; other links
// report physics.ErrNotSupported, and keep reporting it.
func (l *Link) Mass() (float64, error) {
	l.massOnce.Do(func() {
		if l.id.IsBase() {
			l.mass, l.massErr = l.p.BodyMass(l.id.Body)
			return
		}
		l.mass, l.massErr = l.p.LinkMass(l.id)
	})
	return l.mass, l.massErr
}

func (l *Link) Dynamics() (physics.Dynamics, error) { return l.p.LinkDynamics(l.id) }

func (l *Link) SetDynamics(upd physics.DynamicsUpdate) error {
	return l.p.SetLinkDynamics(l.id, upd)
}
