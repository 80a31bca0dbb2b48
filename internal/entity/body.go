package entity

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/interfaces"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type Body struct {
	id     physics.BodyID
	p      *physics.Physics
	joints interfaces.Joints
}

func NewBody(p *physics.Physics, joints interfaces.Joints, id physics.BodyID) *Body {
	return &Body{id: id, p: p, joints: joints}
}

func (b *Body) ID() physics.BodyID { return b.id }

func (b *Body) Name() (string, error) { return b.p.BodyName(b.id) }

func (b *Body) String() string { return fmt.Sprintf("body(%d)", b.id) }

func (b *Body) Pose() (spatial.Pose, error) { return b.p.BodyPose(b.id) }

func (b *Body) SetPose(pose spatial.Pose) error { return b.p.SetBodyPose(b.id, pose) }

func (b *Body) Mass() (float64, error) { return b.p.BodyMass(b.id) }

func (b *Body) Dynamics() (physics.Dynamics, error) { return b.p.BodyDynamics(b.id) }

func (b *Body) BaseLink() *Link { return newLink(b.p, engine.BodyRef(b.id)) }

// Links returns the non-base links in engine order.
func (b *Body) Links() ([]*Link, error) {
	idx, err := b.p.BodyLinkIndices(b.id)
	if err != nil {
		return nil, err
	}
	out := make([]*Link, len(idx))
	for i, l := range idx {
		out[i] = newLink(b.p, engine.LinkRef(b.id, l))
	}
	return out, nil
}

func (b *Body) Joints() ([]*Joint, error) {
	idx, err := b.p.BodyJointIndices(b.id)
	if err != nil {
		return nil, err
	}
	out := make([]*Joint, len(idx))
	for i, j := range idx {
		out[i] = b.joint(j)
	}
	return out, nil
}

func (b *Body) joint(idx int) *Joint {
	return &Joint{id: physics.JointID{Body: b.id, Index: idx}, p: b.p, joints: b.joints}
}

// Link finds a link by name, the base included.
func (b *Body) Link(name string) (*Link, error) {
	base := b.BaseLink()
	if n, err := base.Name(); err == nil && n == name {
		return base, nil
	}
	links, err := b.Links()
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		n, err := l.Name()
		if err != nil {
			return nil, err
		}
		if n == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on body %d", ErrLinkNotFound, name, b.id)
}

func (b *Body) Joint(name string) (*Joint, error) {
	joints, err := b.Joints()
	if err != nil {
		return nil, err
	}
	for _, j := range joints {
		n, err := j.Name()
		if err != nil {
			return nil, err
		}
		if n == name {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on body %d", ErrJointNotFound, name, b.id)
}

func (b *Body) jointIDs() ([]physics.JointID, error) {
	idx, err := b.p.BodyJointIndices(b.id)
	if err != nil {
		return nil, err
	}
	ids := make([]physics.JointID, len(idx))
	for i, j := range idx {
		ids[i] = physics.JointID{Body: b.id, Index: j}
	}
	return ids, nil
}

// JointPositions returns one value per joint, fixed joints included.
func (b *Body) JointPositions() ([]float64, error) {
	ids, err := b.jointIDs()
	if err != nil {
		return nil, err
	}
	return b.joints.Positions(ids)
}

func (b *Body) JointVelocities() ([]float64, error) {
	ids, err := b.jointIDs()
	if err != nil {
		return nil, err
	}
	return b.joints.Velocities(ids)
}

// SetJointPositions resets every joint of the body instantly.
func (b *Body) SetJointPositions(q []float64) error {
	ids, err := b.jointIDs()
	if err != nil {
		return err
	}
	return b.joints.SetPositions(ids, q)
}
