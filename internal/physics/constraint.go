package physics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var constraintTypes = map[string]engine.JointType{
	"fixed":       engine.JointFixed,
	"revolute":    engine.JointRevolute,
	"prismatic":   engine.JointPrismatic,
	"point2point": engine.JointPoint2Point,
}

// AddConstraint joins child to parent so that parent·ParentFrame equals
// child·ChildFrame. Either side may be engine.NoEntity to anchor to the
// world.
func (p *Physics) AddConstraint(parent, child LinkID, opts ...ConstraintOption) (ConstraintID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	o := constraintOptions{
		jointType:   "fixed",
		parentFrame: spatial.IdentityPose(),
		childFrame:  spatial.IdentityPose(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	jt, ok := constraintTypes[o.jointType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownJointType, o.jointType)
	}
	id, err := p.eng.CreateConstraint(engine.ConstraintSpec{
		Parent:      parent,
		Child:       child,
		Type:        jt,
		Axis:        o.axis,
		ParentFrame: o.parentFrame,
		ChildFrame:  o.childFrame,
	})
	if err != nil {
		return 0, err
	}
	p.log.Debug("constraint added", zap.Int("constraint", int(id)),
		zap.Stringer("parent", parent), zap.Stringer("child", child), zap.String("type", o.jointType))
	return id, nil
}

func (p *Physics) ChangeConstraint(id ConstraintID, upd engine.ConstraintUpdate) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ChangeConstraint(id, upd)
}

// RemoveConstraint releases the constraint force before removing it.
func (p *Physics) RemoveConstraint(id ConstraintID) error {
	if err := p.SetConstraintMaxForce(id, 0); err != nil {
		return err
	}
	return p.eng.RemoveConstraint(id)
}

func (p *Physics) constraintInfo(id ConstraintID) (engine.ConstraintInfo, error) {
	if err := p.alive(); err != nil {
		return engine.ConstraintInfo{}, err
	}
	return p.eng.ConstraintInfo(id)
}

// ConstraintPose is the current child frame of the constraint.
func (p *Physics) ConstraintPose(id ConstraintID) (spatial.Pose, error) {
	info, err := p.constraintInfo(id)
	return info.ChildFrame, err
}

func (p *Physics) ConstraintPosition(id ConstraintID) (spatial.Vec3, error) {
	pose, err := p.ConstraintPose(id)
	return pose.Position, err
}

func (p *Physics) ConstraintOrientation(id ConstraintID) (spatial.Quaternion, error) {
	pose, err := p.ConstraintPose(id)
	return pose.Orientation, err
}

func (p *Physics) ConstraintMaxForce(id ConstraintID) (float64, error) {
	info, err := p.constraintInfo(id)
	return info.MaxForce, err
}

func (p *Physics) SetConstraintPose(id ConstraintID, pose spatial.Pose) error {
	return p.ChangeConstraint(id, engine.ConstraintUpdate{ChildFrame: &pose})
}

func (p *Physics) SetConstraintPosition(id ConstraintID, position spatial.Vec3) error {
	pose, err := p.ConstraintPose(id)
	if err != nil {
		return err
	}
	pose.Position = position
	return p.SetConstraintPose(id, pose)
}

func (p *Physics) SetConstraintOrientation(id ConstraintID, orientation spatial.Quaternion) error {
	pose, err := p.ConstraintPose(id)
	if err != nil {
		return err
	}
	pose.Orientation = orientation
	return p.SetConstraintPose(id, pose)
}

func (p *Physics) SetConstraintMaxForce(id ConstraintID, force float64) error {
	return p.ChangeConstraint(id, engine.ConstraintUpdate{MaxForce: &force})
}

func (p *Physics) NumConstraints() (int, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	return len(p.eng.Constraints()), nil
}
