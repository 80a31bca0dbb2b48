package interfaces

import "github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"

// Set groups the three facades over one session.
type Set struct {
	Joints   Joints
	Links    Links
	Dynamics Dynamics
}

func New(p *physics.Physics) *Set {
	return &Set{
		Joints:   NewJoints(p),
		Links:    NewLinks(p),
		Dynamics: NewDynamics(p),
	}
}
