package physics

import (
	"time"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type Option func(*Physics)

// WithTimeStep runs the session in fixed-step mode. Without it the session
// is real-time.
func WithTimeStep(dt float64) Option {
	return func(p *Physics) { p.timeStep = &dt }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Physics) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock replaces the wall clock used by real-time sessions.
func WithClock(now func() time.Time) Option {
	return func(p *Physics) { p.now = now }
}

type bodyOptions struct {
	scale          float64
	static         bool
	baseMass       *float64
	collisionFrame spatial.Pose
	visualFrame    spatial.Pose
}

type BodyOption func(*bodyOptions)

func WithScale(s float64) BodyOption { return func(o *bodyOptions) { o.scale = s } }

// WithStatic fixes the base of the loaded body.
func WithStatic() BodyOption { return func(o *bodyOptions) { o.static = true } }

// WithBaseMass sets the mass of a rigid mesh body. The default is 0.1.
func WithBaseMass(m float64) BodyOption { return func(o *bodyOptions) { o.baseMass = &m } }

func WithCollisionFrame(p spatial.Pose) BodyOption {
	return func(o *bodyOptions) { o.collisionFrame = p }
}

func WithVisualFrame(p spatial.Pose) BodyOption {
	return func(o *bodyOptions) { o.visualFrame = p }
}

type controlOptions struct {
	targetVelocity *float64
	maxVelocity    *float64
	maxForce       *float64
	positionGain   *float64
	velocityGain   *float64
}

type ControlOption func(*controlOptions)

func WithTargetVelocity(v float64) ControlOption {
	return func(o *controlOptions) { o.targetVelocity = &v }
}

func WithMaxVelocity(v float64) ControlOption {
	return func(o *controlOptions) { o.maxVelocity = &v }
}

func WithMaxForce(f float64) ControlOption {
	return func(o *controlOptions) { o.maxForce = &f }
}

func WithPositionGain(g float64) ControlOption {
	return func(o *controlOptions) { o.positionGain = &g }
}

func WithVelocityGain(g float64) ControlOption {
	return func(o *controlOptions) { o.velocityGain = &g }
}

type arrayOptions struct {
	targetVelocities []float64
	maxVelocities    []float64
	maxForces        []float64
	positionGains    []float64
	velocityGains    []float64
}

type ArrayControlOption func(*arrayOptions)

func WithTargetVelocities(v []float64) ArrayControlOption {
	return func(o *arrayOptions) { o.targetVelocities = v }
}

// WithMaxVelocities is rejected by PositionControlArray with
// ErrNotImplemented.
func WithMaxVelocities(v []float64) ArrayControlOption {
	return func(o *arrayOptions) { o.maxVelocities = v }
}

func WithMaxForces(f []float64) ArrayControlOption {
	return func(o *arrayOptions) { o.maxForces = f }
}

func WithPositionGains(g []float64) ArrayControlOption {
	return func(o *arrayOptions) { o.positionGains = g }
}

func WithVelocityGains(g []float64) ArrayControlOption {
	return func(o *arrayOptions) { o.velocityGains = g }
}

type ikOptions struct {
	lower, upper  []float64
	ranges        []float64
	damping       []float64
	restPoses     []float64
	positionOnly  bool
	maxIterations int
	threshold     float64
}

type IKOption func(*ikOptions)

func WithJointLimits(lower, upper []float64) IKOption {
	return func(o *ikOptions) { o.lower, o.upper = lower, upper }
}

func WithJointRanges(r []float64) IKOption { return func(o *ikOptions) { o.ranges = r } }

func WithJointDamping(d []float64) IKOption { return func(o *ikOptions) { o.damping = d } }

// WithRestPoses seeds the solver with neutral joint positions.
func WithRestPoses(q []float64) IKOption { return func(o *ikOptions) { o.restPoses = q } }

// WithPositionOnly ignores the target orientation.
func WithPositionOnly() IKOption { return func(o *ikOptions) { o.positionOnly = true } }

func WithMaxIterations(n int) IKOption { return func(o *ikOptions) { o.maxIterations = n } }

func WithResidualThreshold(t float64) IKOption { return func(o *ikOptions) { o.threshold = t } }

type constraintOptions struct {
	jointType   string
	axis        spatial.Vec3
	parentFrame spatial.Pose
	childFrame  spatial.Pose
}

type ConstraintOption func(*constraintOptions)

// WithJointType names the constraint joint: fixed (default), revolute,
// prismatic or point2point.
func WithJointType(name string) ConstraintOption {
	return func(o *constraintOptions) { o.jointType = name }
}

func WithJointAxis(axis spatial.Vec3) ConstraintOption {
	return func(o *constraintOptions) { o.axis = axis }
}

func WithParentFrame(p spatial.Pose) ConstraintOption {
	return func(o *constraintOptions) { o.parentFrame = p }
}

func WithChildFrame(p spatial.Pose) ConstraintOption {
	return func(o *constraintOptions) { o.childFrame = p }
}
