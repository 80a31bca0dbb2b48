package interfaces

import (
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type LinkBackend interface {
	LinkName(l physics.LinkID) (string, error)
	LinkPose(l physics.LinkID) (spatial.Pose, error)
	LinkLocalOffset(l physics.LinkID) (spatial.Pose, error)
	LinkCenterOfMass(l physics.LinkID) (spatial.Pose, error)
	ComputeInverseKinematics(l physics.LinkID, target spatial.Pose, opts ...physics.IKOption) ([]float64, error)
}

type Links struct {
	b LinkBackend
}

func NewLinks(b LinkBackend) Links { return Links{b: b} }

func (l Links) Name(id physics.LinkID) (string, error)               { return l.b.LinkName(id) }
func (l Links) Pose(id physics.LinkID) (spatial.Pose, error)         { return l.b.LinkPose(id) }
func (l Links) LocalOffset(id physics.LinkID) (spatial.Pose, error)  { return l.b.LinkLocalOffset(id) }
func (l Links) CenterOfMass(id physics.LinkID) (spatial.Pose, error) { return l.b.LinkCenterOfMass(id) }

// IKJoints solves for a configuration of the link's whole body, one value
// per body joint.
func (l Links) IKJoints(id physics.LinkID, target spatial.Pose, opts ...physics.IKOption) ([]float64, error) {
	return l.b.ComputeInverseKinematics(id, target, opts...)
}
