package reference

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type urdfRobot struct {
	Name      string         `xml:"name,attr"`
	Materials []urdfMaterial `xml:"material"`
	Links     []urdfLink     `xml:"link"`
	Joints    []urdfJoint    `xml:"joint"`
}

type urdfMaterial struct {
	Name  string `xml:"name,attr"`
	Color *struct {
		RGBA string `xml:"rgba,attr"`
	} `xml:"color"`
}

type urdfOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type urdfGeometry struct {
	Box *struct {
		Size string `xml:"size,attr"`
	} `xml:"box"`
	Sphere *struct {
		Radius float64 `xml:"radius,attr"`
	} `xml:"sphere"`
	Cylinder *struct {
		Radius float64 `xml:"radius,attr"`
		Length float64 `xml:"length,attr"`
	} `xml:"cylinder"`
	Mesh *struct {
		Filename string `xml:"filename,attr"`
		Scale    string `xml:"scale,attr"`
	} `xml:"mesh"`
}

type urdfShape struct {
	Origin   *urdfOrigin   `xml:"origin"`
	Geometry urdfGeometry  `xml:"geometry"`
	Material *urdfMaterial `xml:"material"`
}

type urdfLink struct {
	Name     string `xml:"name,attr"`
	Inertial *struct {
		Origin *urdfOrigin `xml:"origin"`
		Mass   struct {
			Value float64 `xml:"value,attr"`
		} `xml:"mass"`
		Inertia struct {
			IXX float64 `xml:"ixx,attr"`
			IYY float64 `xml:"iyy,attr"`
			IZZ float64 `xml:"izz,attr"`
		} `xml:"inertia"`
	} `xml:"inertial"`
	Visuals    []urdfShape `xml:"visual"`
	Collisions []urdfShape `xml:"collision"`
}

type urdfJoint struct {
	Name   string      `xml:"name,attr"`
	Type   string      `xml:"type,attr"`
	Origin *urdfOrigin `xml:"origin"`
	Parent struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Axis *struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *struct {
		Lower    float64 `xml:"lower,attr"`
		Upper    float64 `xml:"upper,attr"`
		Effort   float64 `xml:"effort,attr"`
		Velocity float64 `xml:"velocity,attr"`
	} `xml:"limit"`
	Dynamics *struct {
		Damping  float64 `xml:"damping,attr"`
		Friction float64 `xml:"friction,attr"`
	} `xml:"dynamics"`
}

var defaultRGBA = [4]float64{1, 1, 1, 1}

// loadURDF builds the base and the joint-ordered links of a URDF file. Links
// are numbered depth-first from the root, children in document order.
func loadURDF(path string, scale float64) (string, link, []link, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", link{}, nil, err
	}
	var robot urdfRobot
	if err := xml.Unmarshal(data, &robot); err != nil {
		return "", link{}, nil, fmt.Errorf("%w: %s: %v", engine.ErrUnsupportedFormat, path, err)
	}
	if len(robot.Links) == 0 {
		return "", link{}, nil, fmt.Errorf("%w: %s: no links", engine.ErrUnsupportedFormat, path)
	}

	p := urdfParser{dir: filepath.Dir(path), scale: scale, materials: map[string][4]float64{}}
	for _, m := range robot.Materials {
		if m.Color != nil {
			p.materials[m.Name] = parseRGBA(m.Color.RGBA)
		}
	}

	byName := make(map[string]*urdfLink, len(robot.Links))
	for i := range robot.Links {
		byName[robot.Links[i].Name] = &robot.Links[i]
	}
	children := make(map[string][]*urdfJoint)
	isChild := make(map[string]bool)
	for i := range robot.Joints {
		j := &robot.Joints[i]
		if _, ok := byName[j.Parent.Link]; !ok {
			return "", link{}, nil, fmt.Errorf("%w: joint %q: unknown parent %q", engine.ErrUnsupportedFormat, j.Name, j.Parent.Link)
		}
		if _, ok := byName[j.Child.Link]; !ok {
			return "", link{}, nil, fmt.Errorf("%w: joint %q: unknown child %q", engine.ErrUnsupportedFormat, j.Name, j.Child.Link)
		}
		children[j.Parent.Link] = append(children[j.Parent.Link], j)
		isChild[j.Child.Link] = true
	}

	var root *urdfLink
	for i := range robot.Links {
		if !isChild[robot.Links[i].Name] {
			if root != nil {
				return "", link{}, nil, fmt.Errorf("%w: %s: multiple root links", engine.ErrUnsupportedFormat, path)
			}
			root = &robot.Links[i]
		}
	}
	if root == nil {
		return "", link{}, nil, fmt.Errorf("%w: %s: kinematic loop", engine.ErrUnsupportedFormat, path)
	}

	base, err := p.rigid(root)
	if err != nil {
		return "", link{}, nil, err
	}

	var links []link
	var walk func(name string, parent engine.LinkIndex) error
	walk = func(name string, parent engine.LinkIndex) error {
		for _, j := range children[name] {
			l, err := p.rigid(byName[j.Child.Link])
			if err != nil {
				return err
			}
			if err := p.joint(&l, j); err != nil {
				return err
			}
			l.parent = parent
			links = append(links, l)
			if err := walk(j.Child.Link, engine.LinkIndex(len(links)-1)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root.Name, engine.BaseLink); err != nil {
		return "", link{}, nil, err
	}

	name := robot.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name, base, links, nil
}

type urdfParser struct {
	dir       string
	scale     float64
	materials map[string][4]float64
}

func (p *urdfParser) rigid(u *urdfLink) (link, error) {
	l := link{name: u.Name, parent: engine.BaseLink, inertial: spatial.IdentityPose(), dyn: defaultDynamics()}
	if u.Inertial != nil {
		l.mass = u.Inertial.Mass.Value
		pose, err := p.origin(u.Inertial.Origin)
		if err != nil {
			return link{}, err
		}
		l.inertial = pose
		s2 := p.scale * p.scale
		l.inertiaDiag = spatial.Vec3{X: u.Inertial.Inertia.IXX * s2, Y: u.Inertial.Inertia.IYY * s2, Z: u.Inertial.Inertia.IZZ * s2}
	}
	for _, v := range u.Visuals {
		g, err := p.geom(v)
		if err != nil {
			return link{}, err
		}
		l.visuals = append(l.visuals, g)
	}
	for _, c := range u.Collisions {
		g, err := p.geom(c)
		if err != nil {
			return link{}, err
		}
		l.collisions = append(l.collisions, g)
	}
	return l, nil
}

func (p *urdfParser) joint(l *link, j *urdfJoint) error {
	switch j.Type {
	case "revolute", "continuous":
		l.jointType = engine.JointRevolute
	case "prismatic":
		l.jointType = engine.JointPrismatic
	case "fixed":
		l.jointType = engine.JointFixed
	default:
		return fmt.Errorf("%w: joint %q: type %q", engine.ErrUnsupportedFormat, j.Name, j.Type)
	}
	l.joint = j.Name
	origin, err := p.origin(j.Origin)
	if err != nil {
		return err
	}
	l.origin = origin
	l.axis = spatial.Vec3{X: 1}
	if j.Axis != nil {
		axis, err := parseVec3(j.Axis.XYZ)
		if err != nil {
			return fmt.Errorf("%w: joint %q axis: %v", engine.ErrUnsupportedFormat, j.Name, err)
		}
		l.axis = axis.Normalize()
	}
	if j.Type == "continuous" {
		l.lower, l.upper = 0, -1
	}
	if j.Limit != nil {
		if j.Type != "continuous" {
			l.lower, l.upper = j.Limit.Lower, j.Limit.Upper
			if l.jointType == engine.JointPrismatic {
				l.lower *= p.scale
				l.upper *= p.scale
			}
		}
		l.maxForce = j.Limit.Effort
		l.maxVelocity = j.Limit.Velocity
	}
	if j.Dynamics != nil {
		l.damping = j.Dynamics.Damping
		l.friction = j.Dynamics.Friction
	}
	return nil
}

func (p *urdfParser) origin(o *urdfOrigin) (spatial.Pose, error) {
	if o == nil {
		return spatial.IdentityPose(), nil
	}
	xyz, err := parseVec3(o.XYZ)
	if err != nil {
		return spatial.Pose{}, fmt.Errorf("%w: origin xyz: %v", engine.ErrUnsupportedFormat, err)
	}
	rpy, err := parseVec3(o.RPY)
	if err != nil {
		return spatial.Pose{}, fmt.Errorf("%w: origin rpy: %v", engine.ErrUnsupportedFormat, err)
	}
	return spatial.PoseFromEuler(xyz.Scale(p.scale), spatial.Euler{Roll: rpy.X, Pitch: rpy.Y, Yaw: rpy.Z}), nil
}

func (p *urdfParser) geom(s urdfShape) (geom, error) {
	local, err := p.origin(s.Origin)
	if err != nil {
		return geom{}, err
	}
	g := geom{local: local, rgba: defaultRGBA}
	if s.Material != nil {
		if s.Material.Color != nil {
			g.rgba = parseRGBA(s.Material.Color.RGBA)
		} else if c, ok := p.materials[s.Material.Name]; ok {
			g.rgba = c
		}
	}
	switch geo := s.Geometry; {
	case geo.Box != nil:
		size, err := parseVec3(geo.Box.Size)
		if err != nil {
			return geom{}, fmt.Errorf("%w: box size: %v", engine.ErrUnsupportedFormat, err)
		}
		g.kind = engine.GeomBox
		g.dims = size.Scale(p.scale / 2)
	case geo.Sphere != nil:
		g.kind = engine.GeomSphere
		g.dims = spatial.Vec3{X: geo.Sphere.Radius * p.scale}
	case geo.Cylinder != nil:
		g.kind = engine.GeomCylinder
		g.dims = spatial.Vec3{X: geo.Cylinder.Radius * p.scale, Z: geo.Cylinder.Length * p.scale}
	case geo.Mesh != nil:
		scale := spatial.Vec3{X: 1, Y: 1, Z: 1}
		if geo.Mesh.Scale != "" {
			if scale, err = parseVec3(geo.Mesh.Scale); err != nil {
				return geom{}, fmt.Errorf("%w: mesh scale: %v", engine.ErrUnsupportedFormat, err)
			}
		}
		file := resolveAsset(p.dir, geo.Mesh.Filename)
		g = meshGeom(file, scale.Scale(p.scale), local, g.rgba)
	default:
		return geom{}, fmt.Errorf("%w: empty geometry", engine.ErrUnsupportedFormat)
	}
	return g, nil
}

// meshGeom reads the vertex bounds of an OBJ mesh. Unreadable or non-OBJ
// meshes keep their file name but have no extent.
func meshGeom(file string, scale spatial.Vec3, local spatial.Pose, rgba [4]float64) geom {
	g := geom{kind: engine.GeomMesh, mesh: file, local: local, rgba: rgba}
	if lo, hi, err := objBounds(file); err == nil {
		lo, hi = lo.Mul(scale), hi.Mul(scale)
		lo, hi = lo.Min(hi), lo.Max(hi)
		g.dims = hi.Sub(lo).Scale(0.5)
		g.local = local.Multiply(spatial.Pose{Position: lo.Add(hi).Scale(0.5), Orientation: spatial.IdentityQuaternion()})
	}
	return g
}

func resolveAsset(dir, name string) string {
	name = strings.TrimPrefix(name, "package://")
	name = strings.TrimPrefix(name, "file://")
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseVec3(s string) (spatial.Vec3, error) {
	if strings.TrimSpace(s) == "" {
		return spatial.Vec3{}, nil
	}
	f, err := parseFloats(s)
	if err != nil {
		return spatial.Vec3{}, err
	}
	return spatial.Vec3FromSlice(f)
}

func parseRGBA(s string) [4]float64 {
	f, err := parseFloats(s)
	if err != nil || len(f) != 4 {
		return defaultRGBA
	}
	return [4]float64{f[0], f[1], f[2], f[3]}
}
