package physics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// DefaultMeshMass is the base mass of rigid mesh bodies loaded without
// WithBaseMass.
const DefaultMeshMass = 0.1

// AddBody loads an asset by extension: .urdf as an articulated body, .obj as
// a single rigid mesh with matching collision and visual shapes.
func (p *Physics) AddBody(path string, pose spatial.Pose, opts ...BodyOption) (BodyID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	o := bodyOptions{scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return 0, err
	}

	var id BodyID
	switch ext := strings.ToLower(filepath.Ext(abs)); ext {
	case ".urdf":
		id, err = p.eng.LoadArticulated(abs, pose, o.scale, o.static)
	case ".obj":
		id, err = p.addMesh(abs, pose, o)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedExtension, ext)
	}
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", abs, err)
	}
	p.log.Debug("body added", zap.Int("body", int(id)), zap.String("path", abs))
	return id, nil
}

func (p *Physics) addMesh(path string, pose spatial.Pose, o bodyOptions) (BodyID, error) {
	scale := spatial.Vec3{X: o.scale, Y: o.scale, Z: o.scale}
	col, err := p.eng.CreateCollisionShape(engine.ShapeSpec{
		Geometry:  engine.GeomMesh,
		FileName:  path,
		MeshScale: scale,
		FramePose: o.collisionFrame,
	})
	if err != nil {
		return 0, err
	}
	vis, err := p.eng.CreateVisualShape(engine.ShapeSpec{
		Geometry:  engine.GeomMesh,
		FileName:  path,
		MeshScale: scale,
		FramePose: o.visualFrame,
	})
	if err != nil {
		return 0, err
	}
	mass := DefaultMeshMass
	if o.baseMass != nil {
		mass = *o.baseMass
	}
	return p.eng.CreateMultiBody(engine.MultiBodySpec{
		BaseMass:       mass,
		CollisionShape: col,
		VisualShape:    vis,
		BasePose:       pose,
		Static:         o.static,
	})
}

func (p *Physics) CreateCollisionShape(spec engine.ShapeSpec) (engine.ShapeID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	return p.eng.CreateCollisionShape(spec)
}

func (p *Physics) CreateVisualShape(spec engine.ShapeSpec) (engine.ShapeID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	return p.eng.CreateVisualShape(spec)
}

// AddPrimitiveBody creates a single-link body from shapes made with
// CreateCollisionShape and CreateVisualShape.
func (p *Physics) AddPrimitiveBody(spec engine.MultiBodySpec) (BodyID, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	id, err := p.eng.CreateMultiBody(spec)
	if err != nil {
		return 0, err
	}
	p.log.Debug("primitive body added", zap.Int("body", int(id)))
	return id, nil
}

// RemoveBody removes the body. Constraints that reference it are left in
// place: cascading removal is unsupported and only logged.
func (p *Physics) RemoveBody(id BodyID) error {
	if err := p.alive(); err != nil {
		return err
	}
	var dangling []int
	for _, cid := range p.eng.Constraints() {
		info, err := p.eng.ConstraintInfo(cid)
		if err != nil {
			continue
		}
		if info.Spec.Parent.Body == id || info.Spec.Child.Body == id {
			dangling = append(dangling, int(cid))
		}
	}
	if err := p.eng.RemoveBody(id); err != nil {
		return err
	}
	if len(dangling) > 0 {
		p.log.Warn("removed body is still referenced by constraints",
			zap.Int("body", int(id)), zap.Ints("constraints", dangling))
	}
	for j := range p.commands {
		if j.Body == id {
			delete(p.commands, j)
		}
	}
	for j := range p.sensors {
		if j.Body == id {
			delete(p.sensors, j)
		}
	}
	return nil
}

func (p *Physics) Bodies() ([]BodyID, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	return p.eng.Bodies(), nil
}

func (p *Physics) BodyName(id BodyID) (string, error) {
	if err := p.alive(); err != nil {
		return "", err
	}
	info, err := p.eng.BodyInfo(id)
	if err != nil {
		return "", err
	}
	return info.BodyName, nil
}

func (p *Physics) BodyPose(id BodyID) (spatial.Pose, error) {
	if err := p.alive(); err != nil {
		return spatial.Pose{}, err
	}
	return p.eng.BasePose(id)
}

func (p *Physics) BodyPosition(id BodyID) (spatial.Vec3, error) {
	pose, err := p.BodyPose(id)
	return pose.Position, err
}

func (p *Physics) BodyLinearVelocity(id BodyID) (spatial.Vec3, error) {
	if err := p.alive(); err != nil {
		return spatial.Vec3{}, err
	}
	lin, _, err := p.eng.BaseVelocity(id)
	return lin, err
}

func (p *Physics) BodyAngularVelocity(id BodyID) (spatial.Vec3, error) {
	if err := p.alive(); err != nil {
		return spatial.Vec3{}, err
	}
	_, ang, err := p.eng.BaseVelocity(id)
	return ang, err
}

func (p *Physics) BodyMass(id BodyID) (float64, error) {
	d, err := p.BodyDynamics(id)
	return d.Mass, err
}

func (p *Physics) BodyDynamics(id BodyID) (Dynamics, error) {
	return p.LinkDynamics(engine.BodyRef(id))
}

// BodyLinkIndices lists the non-base links in engine order.
func (p *Physics) BodyLinkIndices(id BodyID) ([]engine.LinkIndex, error) {
	n, err := p.NumJoints(id)
	if err != nil {
		return nil, err
	}
	out := make([]engine.LinkIndex, n)
	for i := range out {
		out[i] = engine.LinkIndex(i)
	}
	return out, nil
}

func (p *Physics) BodyJointIndices(id BodyID) ([]int, error) {
	n, err := p.NumJoints(id)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

func (p *Physics) NumJoints(id BodyID) (int, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	return p.eng.NumJoints(id)
}

func (p *Physics) SetBodyPose(id BodyID, pose spatial.Pose) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ResetBasePose(id, pose)
}

func (p *Physics) SetBodyPosition(id BodyID, position spatial.Vec3) error {
	pose, err := p.BodyPose(id)
	if err != nil {
		return err
	}
	pose.Position = position
	return p.eng.ResetBasePose(id, pose)
}

func (p *Physics) SetBodyOrientation(id BodyID, orientation spatial.Quaternion) error {
	pose, err := p.BodyPose(id)
	if err != nil {
		return err
	}
	pose.Orientation = orientation
	return p.eng.ResetBasePose(id, pose)
}

func (p *Physics) SetBodyLinearVelocity(id BodyID, v spatial.Vec3) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ResetBaseVelocity(id, &v, nil)
}

func (p *Physics) SetBodyAngularVelocity(id BodyID, w spatial.Vec3) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ResetBaseVelocity(id, nil, &w)
}

func (p *Physics) SetBodyMass(id BodyID, mass float64) error {
	return p.SetBodyDynamics(id, DynamicsUpdate{Mass: &mass})
}

func (p *Physics) SetBodyDynamics(id BodyID, upd DynamicsUpdate) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ChangeDynamics(id, engine.BaseLink, upd)
}

// SetBodyColor changes the base link's visual colour. Nil arguments keep the
// current values.
func (p *Physics) SetBodyColor(id BodyID, rgba, specular *[4]float64) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ChangeVisualColor(id, engine.BaseLink, rgba, specular)
}

func (p *Physics) VisualShapes(id BodyID) ([]engine.VisualShape, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	return p.eng.VisualShapes(id)
}
