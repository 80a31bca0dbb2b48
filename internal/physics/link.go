package physics

import (
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// LinkName returns the asset's name for the link; the base link reports the
// asset's base name.
func (p *Physics) LinkName(link LinkID) (string, error) {
	if err := p.alive(); err != nil {
		return "", err
	}
	if link.IsBase() {
		info, err := p.eng.BodyInfo(link.Body)
		return info.BaseName, err
	}
	info, err := p.eng.JointInfo(link.Body, int(link.Link))
	return info.LinkName, err
}

func (p *Physics) linkState(link LinkID) (engine.LinkState, error) {
	if err := p.alive(); err != nil {
		return engine.LinkState{}, err
	}
	return p.eng.LinkState(link.Body, link.Link)
}

// LinkPose is the world pose of the link frame.
func (p *Physics) LinkPose(link LinkID) (spatial.Pose, error) {
	s, err := p.linkState(link)
	return s.LinkFrame, err
}

// LinkLocalOffset is the centre of mass expressed in the link frame.
func (p *Physics) LinkLocalOffset(link LinkID) (spatial.Pose, error) {
	s, err := p.linkState(link)
	return s.LocalInertial, err
}

func (p *Physics) LinkCenterOfMass(link LinkID) (spatial.Pose, error) {
	s, err := p.linkState(link)
	return s.WorldCOM, err
}

// LinkMass fails with ErrNotSupported: the per-link mass query is known to
// return wrong values upstream. BodyMass covers the base.
func (p *Physics) LinkMass(link LinkID) (float64, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	return 0, ErrNotSupported
}

// SetLinkMass fails with ErrNotSupported, see LinkMass.
func (p *Physics) SetLinkMass(link LinkID, mass float64) error {
	if err := p.alive(); err != nil {
		return err
	}
	return ErrNotSupported
}

func (p *Physics) LinkDynamics(link LinkID) (Dynamics, error) {
	if err := p.alive(); err != nil {
		return Dynamics{}, err
	}
	d, err := p.eng.DynamicsInfo(link.Body, link.Link)
	if err != nil {
		return Dynamics{}, err
	}
	return Dynamics{
		Mass:             d.Mass,
		LateralFriction:  d.LateralFriction,
		RollingFriction:  d.RollingFriction,
		SpinningFriction: d.SpinningFriction,
	}, nil
}

func (p *Physics) SetLinkDynamics(link LinkID, upd DynamicsUpdate) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ChangeDynamics(link.Body, link.Link, upd)
}

// ApplyForceToLink applies force at position, both in the link frame, for
// the next step only.
func (p *Physics) ApplyForceToLink(link LinkID, force, position spatial.Vec3) error {
	frame, err := p.LinkPose(link)
	if err != nil {
		return err
	}
	return p.eng.ApplyExternalForce(link, frame.Orientation.Rotate(force), frame.TransformPoint(position))
}

// ApplyTorqueToLink applies a link-frame torque for the next step only.
func (p *Physics) ApplyTorqueToLink(link LinkID, torque spatial.Vec3) error {
	frame, err := p.LinkPose(link)
	if err != nil {
		return err
	}
	return p.eng.ApplyExternalTorque(link, frame.Orientation.Rotate(torque))
}

func (p *Physics) ApplyForceToBody(id BodyID, force, position spatial.Vec3) error {
	return p.ApplyForceToLink(engine.BodyRef(id), force, position)
}

func (p *Physics) ApplyTorqueToBody(id BodyID, torque spatial.Vec3) error {
	return p.ApplyTorqueToLink(engine.BodyRef(id), torque)
}
