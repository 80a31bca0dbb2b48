package robot

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/entity"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/interfaces"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type State int

const (
	Unbound State = iota
	Resolving
	Ready
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Resolving:
		return "resolving"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// BodyLoader loads the arm's asset. An empty assetsDir selects the loader's
// own assets directory.
type BodyLoader interface {
	LoadBody(rel, assetsDir string, pose spatial.Pose, opts ...physics.BodyOption) (*entity.Body, error)
	RemoveBody(id physics.BodyID) error
}

type Option func(*Arm)

func WithLogger(log *zap.Logger) Option {
	return func(a *Arm) {
		if log != nil {
			a.log = log
		}
	}
}

// Arm is a named kinematic subset of one fixed-base body.
type Arm struct {
	cfg    config.Arm
	ifaces *interfaces.Set
	log    *zap.Logger

	state  State
	body   *entity.Body
	joints []physics.JointID
	ee     physics.LinkID

	positionGain *float64
	velocityGain *float64
}

// New loads the arm's body, binds the configured names to engine indices
// and resets the arm to its neutral positions. On any failure the body is
// removed again and no arm is returned.
func New(cfg config.Arm, loader BodyLoader, ifaces *interfaces.Set, opts ...Option) (*Arm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Arm{cfg: cfg, ifaces: ifaces, log: zap.NewNop(), state: Unbound}
	for _, opt := range opts {
		opt(a)
	}

	dir := ""
	if !cfg.UsesDefaultAssets() {
		dir = cfg.AssetsDir
	}
	base := spatial.PoseFromEuler(
		spatial.Vec3{X: cfg.BasePosition[0], Y: cfg.BasePosition[1], Z: cfg.BasePosition[2]},
		spatial.Euler{Roll: cfg.BaseOrientation[0], Pitch: cfg.BaseOrientation[1], Yaw: cfg.BaseOrientation[2]},
	)
	body, err := loader.LoadBody(cfg.URDFName, dir, base, physics.WithStatic())
	if err != nil {
		return nil, fmt.Errorf("load arm %s: %w", cfg.URDFName, err)
	}

	a.body = body
	a.state = Resolving
	if err := a.resolve(); err != nil {
		a.discard(loader)
		return nil, err
	}
	a.state = Ready
	if err := a.ResetNeutral(); err != nil {
		a.discard(loader)
		return nil, fmt.Errorf("reset arm to neutral: %w", err)
	}
	a.log.Info("arm ready",
		zap.String("urdf", cfg.URDFName),
		zap.Int("body", int(body.ID())),
		zap.Strings("joints", cfg.Arm.JointNames),
		zap.String("ee", cfg.EEName))
	return a, nil
}

// discard removes a body that never became a usable arm.
func (a *Arm) discard(loader BodyLoader) {
	id := a.body.ID()
	if err := loader.RemoveBody(id); err != nil {
		a.log.Warn("failed to remove unusable arm body", zap.Int("body", int(id)), zap.Error(err))
	}
	a.body, a.joints, a.state = nil, nil, Unbound
}

// resolve scans the body's joint and link names once.
func (a *Arm) resolve() error {
	joints, err := a.body.Joints()
	if err != nil {
		return err
	}
	byName := make(map[string]physics.JointID, len(joints))
	for _, j := range joints {
		name, err := j.Name()
		if err != nil {
			return err
		}
		if _, dup := byName[name]; !dup {
			byName[name] = j.ID()
		}
	}
	a.joints = make([]physics.JointID, len(a.cfg.Arm.JointNames))
	for i, name := range a.cfg.Arm.JointNames {
		id, ok := byName[name]
		if !ok {
			return &NameNotFoundError{Kind: "joint", Name: name}
		}
		a.joints[i] = id
	}

	ee, err := a.body.Link(a.cfg.EEName)
	if errors.Is(err, entity.ErrLinkNotFound) {
		return &NameNotFoundError{Kind: "link", Name: a.cfg.EEName}
	}
	if err != nil {
		return fmt.Errorf("resolve end-effector %s: %w", a.cfg.EEName, err)
	}
	a.ee = ee.ID()
	return nil
}

func (a *Arm) State() State           { return a.state }
func (a *Arm) Config() config.Arm     { return a.cfg }
func (a *Arm) Body() *entity.Body     { return a.body }
func (a *Arm) EELink() physics.LinkID { return a.ee }

// JointIDs returns the arm joints in configuration order.
func (a *Arm) JointIDs() []physics.JointID {
	return append([]physics.JointID(nil), a.joints...)
}

func (a *Arm) ready() error {
	if a.state != Ready {
		return fmt.Errorf("%w: state %v", ErrNotReady, a.state)
	}
	return nil
}

// ResetNeutral writes the neutral positions directly, bypassing control.
func (a *Arm) ResetNeutral() error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.ifaces.Joints.SetPositions(a.joints, a.cfg.NeutralJointPositions)
}

// SetGains sets the position and velocity gains used by subsequent
// position-control targets.
func (a *Arm) SetGains(position, velocity float64) {
	a.positionGain, a.velocityGain = &position, &velocity
}

// ClearGains returns to the engine's default gains.
func (a *Arm) ClearGains() {
	a.positionGain, a.velocityGain = nil, nil
}

func (a *Arm) Gains() (position, velocity *float64) {
	return a.positionGain, a.velocityGain
}

// ComputeIKJoints returns a full-body configuration, one value per body
// joint, placing the end-effector at target.
func (a *Arm) ComputeIKJoints(target spatial.Pose, opts ...physics.IKOption) ([]float64, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.ifaces.Links.IKJoints(a.ee, target, opts...)
}

// ArmPositions extracts the arm joints from a full-body configuration.
func (a *Arm) ArmPositions(full []float64) ([]float64, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	out := make([]float64, len(a.joints))
	for i, j := range a.joints {
		if j.Index >= len(full) {
			return nil, fmt.Errorf("%w: configuration has %d values, joint %d needed",
				physics.ErrDimensionMismatch, len(full), j.Index)
		}
		out[i] = full[j.Index]
	}
	return out, nil
}

// SetPositionControlTarget issues one position-control command per arm
// joint. armOnly=false is not supported and changes nothing. Targets are
// checked before any command is sent; an engine error part-way through
// leaves the earlier joints commanded.
func (a *Arm) SetPositionControlTarget(targets []float64, armOnly bool) error {
	if err := a.ready(); err != nil {
		return err
	}
	if !armOnly {
		return fmt.Errorf("%w: control of non-arm joints", ErrNotImplemented)
	}
	if len(targets) != len(a.joints) {
		return fmt.Errorf("%w: %d targets for %d arm joints", physics.ErrDimensionMismatch, len(targets), len(a.joints))
	}
	var opts []physics.ControlOption
	if a.positionGain != nil {
		opts = append(opts, physics.WithPositionGain(*a.positionGain))
	}
	if a.velocityGain != nil {
		opts = append(opts, physics.WithVelocityGain(*a.velocityGain))
	}
	for i, q := range targets {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return fmt.Errorf("%w: target %d is %v", physics.ErrNonFinite, i, q)
		}
	}
	for i, j := range a.joints {
		if err := a.ifaces.Joints.PositionControl(j, targets[i], opts...); err != nil {
			return err
		}
	}
	return nil
}

// SetTorqueTargets switches every arm joint to torque control.
func (a *Arm) SetTorqueTargets(tau []float64) error {
	if err := a.ready(); err != nil {
		return err
	}
	if len(tau) != len(a.joints) {
		return fmt.Errorf("%w: %d torques for %d arm joints", physics.ErrDimensionMismatch, len(tau), len(a.joints))
	}
	for i, j := range a.joints {
		if err := a.ifaces.Joints.TorqueControl(j, tau[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Arm) JointPositions() ([]float64, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.ifaces.Joints.Positions(a.joints)
}

func (a *Arm) JointVelocities() ([]float64, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.ifaces.Joints.Velocities(a.joints)
}

func (a *Arm) EEPose() (spatial.Pose, error) {
	if err := a.ready(); err != nil {
		return spatial.Pose{}, err
	}
	return a.ifaces.Links.Pose(a.ee)
}

func (a *Arm) ZeroDecoupledJacobian() (interfaces.Jacobian, error) {
	if err := a.ready(); err != nil {
		return interfaces.Jacobian{}, err
	}
	return a.ifaces.Dynamics.ZeroDecoupledJacobian(a.joints, a.ee)
}

func (a *Arm) ZeroCoupledJacobian() (spatial.Matrix, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.ifaces.Dynamics.ZeroCoupledJacobian(a.joints, a.ee)
}

// MassMatrix is the arm-joint block of the body's mass matrix.
func (a *Arm) MassMatrix() (spatial.Matrix, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.ifaces.Dynamics.MassMatrix(a.body.ID(), a.joints)
}
