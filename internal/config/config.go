package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStep  = 1.0 / 240
	DefaultDuration  = 5.0
	DefaultAssetsDir = "assets"

	// AssetsDirDefault in an arm's ASSETS_DIR defers to the world's assets
	// directory, as does an empty value.
	AssetsDirDefault = "default"

	DefaultCameraDistance = 1.5
	DefaultCameraYaw      = 0.0
	DefaultCameraPitch    = -30.0

	DefaultController = "ik_reach"
	DefaultKp         = 20.0
	DefaultKi         = 0.0
	DefaultKd         = 2.0
)

var ErrInvalid = errors.New("config: invalid configuration")

type Vec3 [3]float64

// Arm describes one robot arm. Keys keep the upper-case names used by the
// existing robot description files.
type Arm struct {
	URDFName              string    `yaml:"URDF_NAME"`
	AssetsDir             string    `yaml:"ASSETS_DIR,omitempty"`
	EEName                string    `yaml:"EE_NAME"`
	Arm                   ArmJoints `yaml:"ARM"`
	NeutralJointPositions []float64 `yaml:"NEUTRAL_JOINT_POSITIONS"`
	// BasePosition and BaseOrientation (roll, pitch, yaw in radians) place
	// the arm's fixed base. Both default to zero.
	BasePosition    Vec3 `yaml:"BASE_POSITION,omitempty"`
	BaseOrientation Vec3 `yaml:"BASE_ORIENTATION,omitempty"`
}

type ArmJoints struct {
	JointNames []string `yaml:"JOINT_NAMES"`
}

// UsesDefaultAssets reports whether the arm's asset is resolved against the
// world's assets directory.
func (a Arm) UsesDefaultAssets() bool {
	return a.AssetsDir == "" || a.AssetsDir == AssetsDirDefault
}

func (a Arm) Validate() error {
	switch {
	case a.URDFName == "":
		return fmt.Errorf("%w: URDF_NAME is required", ErrInvalid)
	case a.EEName == "":
		return fmt.Errorf("%w: EE_NAME is required", ErrInvalid)
	case len(a.Arm.JointNames) == 0:
		return fmt.Errorf("%w: ARM.JOINT_NAMES is empty", ErrInvalid)
	case len(a.NeutralJointPositions) != len(a.Arm.JointNames):
		return fmt.Errorf("%w: %d NEUTRAL_JOINT_POSITIONS for %d arm joints",
			ErrInvalid, len(a.NeutralJointPositions), len(a.Arm.JointNames))
	}
	return nil
}

// Camera positions the debug camera. Yaw and pitch are degrees.
type Camera struct {
	Distance float64 `yaml:"distance"`
	Yaw      float64 `yaml:"yaw"`
	Pitch    float64 `yaml:"pitch"`
	Target   Vec3    `yaml:"target"`
}

// Scene lists the static props of the default scene. An empty asset name
// leaves the prop out.
type Scene struct {
	Plane         string `yaml:"plane"`
	Table         string `yaml:"table"`
	TablePosition Vec3   `yaml:"table_position"`
}

type ControllerConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
	// Target is the end-effector position for ik_reach.
	Target Vec3 `yaml:"target"`
	// Amplitude and Frequency (Hz) shape the trajectory controller.
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

// World configures a session: engine timing, scene and the arms to load.
type World struct {
	AssetsDir string  `yaml:"assets_dir"`
	TimeStep  float64 `yaml:"time_step"`
	RealTime  bool    `yaml:"real_time"`
	Gravity   Vec3    `yaml:"gravity"`
	Camera    Camera  `yaml:"camera"`
	Scene     Scene   `yaml:"scene"`
	Arms      []Arm   `yaml:"arms"`

	Duration         float64          `yaml:"duration"`
	Controller       string           `yaml:"controller"`
	ControllerParams ControllerConfig `yaml:"controller_params"`
}

func DefaultWorld() *World {
	return &World{
		AssetsDir: DefaultAssetsDir,
		TimeStep:  DefaultTimeStep,
		Gravity:   Vec3{0, 0, -9.81},
		Camera: Camera{
			Distance: DefaultCameraDistance,
			Yaw:      DefaultCameraYaw,
			Pitch:    DefaultCameraPitch,
			Target:   Vec3{0, 0, 0.7},
		},
		Scene: Scene{
			Plane:         "plane.urdf",
			Table:         "table.urdf",
			TablePosition: Vec3{0.6, 0, 0},
		},
		Duration:   DefaultDuration,
		Controller: DefaultController,
		ControllerParams: ControllerConfig{
			Kp:        DefaultKp,
			Ki:        DefaultKi,
			Kd:        DefaultKd,
			Amplitude: 0.3,
			Frequency: 0.5,
		},
	}
}

func (w *World) Validate() error {
	if !w.RealTime && w.TimeStep <= 0 {
		return fmt.Errorf("%w: time_step must be positive", ErrInvalid)
	}
	if w.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	if w.Camera.Distance <= 0 {
		return fmt.Errorf("%w: camera distance must be positive", ErrInvalid)
	}
	for i, a := range w.Arms {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("arm %d: %w", i, err)
		}
	}
	return nil
}

// LoadWorld reads a world file over the defaults and validates it.
func LoadWorld(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultWorld()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadArm reads a single arm description.
func LoadArm(path string) (Arm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Arm{}, err
	}
	var a Arm
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Arm{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return Arm{}, err
	}
	return a, nil
}

func Save(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
