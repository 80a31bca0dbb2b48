package physics

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// ComputeInverseKinematics returns one position per joint of the link's
// body that places the link frame at target.
func (p *Physics) ComputeInverseKinematics(link LinkID, target spatial.Pose, opts ...IKOption) ([]float64, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	var o ikOptions
	for _, opt := range opts {
		opt(&o)
	}
	if (o.lower == nil) != (o.upper == nil) {
		return nil, fmt.Errorf("%w: lower and upper limits must be given together", ErrDimensionMismatch)
	}
	n, err := p.eng.NumJoints(link.Body)
	if err != nil {
		return nil, err
	}
	for _, s := range [][]float64{o.lower, o.upper, o.ranges, o.damping, o.restPoses} {
		if s != nil && len(s) != n {
			return nil, fmt.Errorf("%w: IK option has %d entries, body has %d joints", ErrDimensionMismatch, len(s), n)
		}
	}
	return p.eng.InverseKinematics(engine.IKRequest{
		Body:              link.Body,
		Link:              link.Link,
		Target:            target,
		TargetOrientation: !o.positionOnly,
		LowerLimits:       o.lower,
		UpperLimits:       o.upper,
		Ranges:            o.ranges,
		Damping:           o.damping,
		RestPoses:         o.restPoses,
		MaxIterations:     o.maxIterations,
		Threshold:         o.threshold,
	})
}

func (p *Physics) checkJointVectors(id BodyID, vs ...[]float64) error {
	n, err := p.eng.NumJoints(id)
	if err != nil {
		return err
	}
	for _, v := range vs {
		if len(v) != n {
			return fmt.Errorf("%w: got %d values, body %d has %d joints", ErrDimensionMismatch, len(v), id, n)
		}
	}
	return nil
}

// ComputeJacobian returns the translational and rotational 3×N Jacobian
// blocks of the point local (link frame) at configuration q.
func (p *Physics) ComputeJacobian(link LinkID, local spatial.Vec3, q, qd, qdd []float64) (spatial.Matrix, spatial.Matrix, error) {
	if err := p.alive(); err != nil {
		return nil, nil, err
	}
	if err := p.checkJointVectors(link.Body, q, qd, qdd); err != nil {
		return nil, nil, err
	}
	return p.eng.Jacobian(link.Body, link.Link, local, q, qd, qdd)
}

func (p *Physics) ComputeMassMatrix(id BodyID, q []float64) (spatial.Matrix, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if err := p.checkJointVectors(id, q); err != nil {
		return nil, err
	}
	return p.eng.MassMatrix(id, q)
}

func (p *Physics) ComputeInverseDynamics(id BodyID, q, qd, qdd []float64) ([]float64, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if err := p.checkJointVectors(id, q, qd, qdd); err != nil {
		return nil, err
	}
	return p.eng.InverseDynamics(id, q, qd, qdd)
}
