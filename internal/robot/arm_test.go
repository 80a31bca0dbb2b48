package robot_test

import (
	"math"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine/reference"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/entity"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/interfaces"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type loader struct {
	p       *physics.Physics
	ifaces  *interfaces.Set
	dir     string
	removed []physics.BodyID
}

func (l *loader) LoadBody(rel, dir string, pose spatial.Pose, opts ...physics.BodyOption) (*entity.Body, error) {
	if dir == "" {
		dir = l.dir
	}
	id, err := l.p.AddBody(filepath.Join(dir, rel), pose, opts...)
	if err != nil {
		return nil, err
	}
	return entity.NewBody(l.p, l.ifaces.Joints, id), nil
}

func (l *loader) RemoveBody(id physics.BodyID) error {
	l.removed = append(l.removed, id)
	return l.p.RemoveBody(id)
}

// closingJoints disconnects its session once the named joint has been
// looked up, so link lookups that follow fail.
type closingJoints struct {
	interfaces.JointBackend
	p    *physics.Physics
	last string
}

func (c closingJoints) JointName(j physics.JointID) (string, error) {
	name, err := c.JointBackend.JointName(j)
	if err == nil && name == c.last {
		_ = c.p.Disconnect()
	}
	return name, err
}

// shadowLoader loads the arm into the real session and hands back a body
// backed by a second session that dies during name resolution.
type shadowLoader struct {
	*loader
	shadow *physics.Physics
	last   string
}

func (l *shadowLoader) LoadBody(rel, dir string, pose spatial.Pose, opts ...physics.BodyOption) (*entity.Body, error) {
	if dir == "" {
		dir = l.dir
	}
	if _, err := l.loader.LoadBody(rel, dir, pose, opts...); err != nil {
		return nil, err
	}
	id, err := l.shadow.AddBody(filepath.Join(dir, rel), pose, opts...)
	if err != nil {
		return nil, err
	}
	return entity.NewBody(l.shadow, interfaces.NewJoints(closingJoints{JointBackend: l.shadow, p: l.shadow, last: l.last}), id), nil
}

var _ = Describe("Arm", func() {
	var (
		p   *physics.Physics
		ld  *loader
		cfg config.Arm
	)

	BeforeEach(func() {
		dir, err := assets.Extract(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		p = physics.New(reference.New(), physics.WithTimeStep(1.0/240))
		ld = &loader{p: p, ifaces: interfaces.New(p), dir: dir}
		var ok bool
		cfg, ok = config.GetArmPreset("two_link")
		Expect(ok).To(BeTrue())
		cfg.BasePosition = config.Vec3{}
	})

	Describe("construction", func() {
		It("resolves names and becomes ready at the neutral pose", func() {
			arm, err := robot.New(cfg, ld, ld.ifaces)
			Expect(err).NotTo(HaveOccurred())
			Expect(arm.State()).To(Equal(robot.Ready))
			Expect(arm.JointIDs()).To(HaveLen(2))
			Expect(arm.EELink().Link).To(Equal(engine.LinkIndex(2)))

			q, err := arm.JointPositions()
			Expect(err).NotTo(HaveOccurred())
			Expect(q[0]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(q[1]).To(BeNumerically("~", 0.8, 1e-12))
		})

		It("fails without an object when the end-effector is unknown", func() {
			cfg.EEName = "gripper"
			arm, err := robot.New(cfg, ld, ld.ifaces)
			Expect(arm).To(BeNil())
			Expect(err).To(MatchError(robot.ErrNameNotFound))
			var nf *robot.NameNotFoundError
			Expect(err).To(BeAssignableToTypeOf(nf))
			Expect(ld.removed).To(HaveLen(1))

			bodies, err := p.Bodies()
			Expect(err).NotTo(HaveOccurred())
			Expect(bodies).To(BeEmpty())
		})

		It("reports unknown joint names", func() {
			cfg.Arm.JointNames = []string{"shoulder", "wrist"}
			_, err := robot.New(cfg, ld, ld.ifaces)
			Expect(err).To(MatchError(&robot.NameNotFoundError{Kind: "joint", Name: "wrist"}))
		})

		It("rejects invalid configuration before loading", func() {
			cfg.NeutralJointPositions = nil
			_, err := robot.New(cfg, ld, ld.ifaces)
			Expect(err).To(MatchError(config.ErrInvalid))
			bodies, _ := p.Bodies()
			Expect(bodies).To(BeEmpty())
		})

		It("removes the body when the neutral pose is rejected", func() {
			cfg.NeutralJointPositions = []float64{0.2, math.NaN()}
			arm, err := robot.New(cfg, ld, ld.ifaces)
			Expect(arm).To(BeNil())
			Expect(err).To(MatchError(physics.ErrNonFinite))
			Expect(ld.removed).To(HaveLen(1))

			bodies, err := p.Bodies()
			Expect(err).NotTo(HaveOccurred())
			Expect(bodies).To(BeEmpty())
		})

		It("keeps engine failures during link lookup distinct from unknown names", func() {
			shadow := physics.New(reference.New())
			sl := &shadowLoader{loader: ld, shadow: shadow, last: "tool_joint"}
			arm, err := robot.New(cfg, sl, ld.ifaces)
			Expect(arm).To(BeNil())
			Expect(err).To(MatchError(physics.ErrDisconnected))
			Expect(err).NotTo(MatchError(robot.ErrNameNotFound))
			Expect(ld.removed).To(HaveLen(1))
		})

		It("honours a non-default assets directory", func() {
			cfg.AssetsDir = GinkgoT().TempDir()
			_, err := robot.New(cfg, ld, ld.ifaces)
			Expect(err).To(MatchError(physics.ErrNotFound))
		})
	})

	Context("when ready", func() {
		var arm *robot.Arm

		BeforeEach(func() {
			var err error
			arm, err = robot.New(cfg, ld, ld.ifaces)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Start()).To(Succeed())
		})

		It("matches the analytic planar Jacobian", func() {
			jac, err := arm.ZeroDecoupledJacobian()
			Expect(err).NotTo(HaveOccurred())
			q1, q2 := 0.2, 0.8
			Expect(jac.Translational[0][0]).To(BeNumerically("~", -0.5*math.Sin(q1)-0.4*math.Sin(q1+q2), 1e-4))
			Expect(jac.Translational[1][0]).To(BeNumerically("~", 0.5*math.Cos(q1)+0.4*math.Cos(q1+q2), 1e-4))
			Expect(jac.Translational[0][1]).To(BeNumerically("~", -0.4*math.Sin(q1+q2), 1e-4))
			Expect(jac.Translational[1][1]).To(BeNumerically("~", 0.4*math.Cos(q1+q2), 1e-4))

			coupled, err := arm.ZeroCoupledJacobian()
			Expect(err).NotTo(HaveOccurred())
			Expect(coupled.Rows()).To(Equal(6))
		})

		It("returns a symmetric arm mass matrix", func() {
			m, err := arm.MassMatrix()
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Rows()).To(Equal(2))
			Expect(m[0][1]).To(BeNumerically("~", m[1][0], 1e-9))
		})

		It("solves IK for the full body and extracts the arm subset", func() {
			target := spatial.Pose{Position: spatial.Vec3{X: 0.5, Y: 0.4}, Orientation: spatial.IdentityQuaternion()}
			full, err := arm.ComputeIKJoints(target, physics.WithPositionOnly())
			Expect(err).NotTo(HaveOccurred())
			Expect(full).To(HaveLen(3))

			q, err := arm.ArmPositions(full)
			Expect(err).NotTo(HaveOccurred())
			Expect(q).To(Equal(full[:2]))

			_, err = arm.ArmPositions(full[:1])
			Expect(err).To(MatchError(physics.ErrDimensionMismatch))
		})

		It("drives the arm to an IK solution under position control", func() {
			target := spatial.Pose{Position: spatial.Vec3{X: 0.5, Y: 0.4}, Orientation: spatial.IdentityQuaternion()}
			full, err := arm.ComputeIKJoints(target, physics.WithPositionOnly())
			Expect(err).NotTo(HaveOccurred())
			q, err := arm.ArmPositions(full)
			Expect(err).NotTo(HaveOccurred())

			Expect(arm.SetPositionControlTarget(q, true)).To(Succeed())
			for i := 0; i < 720; i++ {
				Expect(p.Step()).To(Succeed())
			}
			ee, err := arm.EEPose()
			Expect(err).NotTo(HaveOccurred())
			Expect(ee.Position.ApproxEqual(target.Position, 1e-2)).To(BeTrue(), "ee at %v", ee.Position)
		})

		It("refuses whole-body control and leaves commands untouched", func() {
			err := arm.SetPositionControlTarget([]float64{0, 0}, false)
			Expect(err).To(MatchError(robot.ErrNotImplemented))
			for _, j := range arm.JointIDs() {
				_, ok := p.LastCommand(j)
				Expect(ok).To(BeFalse())
			}
		})

		It("rejects a non-finite target before commanding any joint", func() {
			err := arm.SetPositionControlTarget([]float64{0.1, math.Inf(1)}, true)
			Expect(err).To(MatchError(physics.ErrNonFinite))
			for _, j := range arm.JointIDs() {
				_, ok := p.LastCommand(j)
				Expect(ok).To(BeFalse())
			}
		})

		It("rejects targets of the wrong length", func() {
			Expect(arm.SetPositionControlTarget([]float64{0}, true)).To(MatchError(physics.ErrDimensionMismatch))
		})

		It("passes configured gains to each command", func() {
			Expect(arm.SetPositionControlTarget([]float64{0.1, 0.2}, true)).To(Succeed())
			cmd, ok := p.LastCommand(arm.JointIDs()[1])
			Expect(ok).To(BeTrue())
			Expect(cmd.PositionGain).To(BeNil())

			arm.SetGains(0.3, 0.9)
			Expect(arm.SetPositionControlTarget([]float64{0.1, 0.2}, true)).To(Succeed())
			cmd, _ = p.LastCommand(arm.JointIDs()[1])
			Expect(*cmd.PositionGain).To(Equal(0.3))
			Expect(*cmd.VelocityGain).To(Equal(0.9))
			Expect(cmd.TargetPosition).To(Equal(0.2))
		})

		It("resets to neutral instantly", func() {
			Expect(ld.ifaces.Joints.SetPositions(arm.JointIDs(), []float64{1, 1})).To(Succeed())
			Expect(arm.ResetNeutral()).To(Succeed())
			q, err := arm.JointPositions()
			Expect(err).NotTo(HaveOccurred())
			Expect(q).To(Equal([]float64{0.2, 0.8}))
		})
	})
})
