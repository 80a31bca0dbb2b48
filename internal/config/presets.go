package config

import (
	"math"
	"sort"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
)

var ArmPresets = map[string]Arm{
	"two_link": {
		URDFName:              assets.TwoLink,
		EEName:                "tool",
		Arm:                   ArmJoints{JointNames: []string{"shoulder", "elbow"}},
		NeutralJointPositions: []float64{0.2, 0.8},
		BasePosition:          Vec3{0, 0, 0.4},
	},
	"panda": {
		URDFName: assets.Panda,
		EEName:   "panda_grasptarget",
		Arm: ArmJoints{JointNames: []string{
			"panda_joint1", "panda_joint2", "panda_joint3", "panda_joint4",
			"panda_joint5", "panda_joint6", "panda_joint7",
		}},
		NeutralJointPositions: []float64{0, -math.Pi / 4, 0, -3 * math.Pi / 4, 0, math.Pi / 2, math.Pi / 4},
	},
}

var WorldPresets = map[string]func() *World{
	"two_link_reach": func() *World {
		w := DefaultWorld()
		w.Arms = []Arm{ArmPresets["two_link"]}
		w.ControllerParams.Target = Vec3{0.5, 0.4, 0.4}
		return w
	},
	"two_link_swing": func() *World {
		w := DefaultWorld()
		w.Gravity = Vec3{}
		w.Arms = []Arm{ArmPresets["two_link"]}
		w.Controller = "trajectory"
		return w
	},
	"panda_table": func() *World {
		w := DefaultWorld()
		w.Arms = []Arm{ArmPresets["panda"]}
		w.ControllerParams.Target = Vec3{0.45, 0.1, 0.5}
		return w
	},
	"panda_hold": func() *World {
		w := DefaultWorld()
		w.Arms = []Arm{ArmPresets["panda"]}
		w.Controller = "hold"
		w.Duration = 2
		return w
	},
}

// GetArmPreset returns a copy of the named arm, or false.
func GetArmPreset(name string) (Arm, bool) {
	a, ok := ArmPresets[name]
	if !ok {
		return Arm{}, false
	}
	a.Arm.JointNames = append([]string(nil), a.Arm.JointNames...)
	a.NeutralJointPositions = append([]float64(nil), a.NeutralJointPositions...)
	return a, true
}

func ListArmPresets() []string {
	return sortedKeys(ArmPresets)
}

func GetWorldPreset(name string) *World {
	build, ok := WorldPresets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListWorldPresets() []string {
	return sortedKeys(WorldPresets)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
