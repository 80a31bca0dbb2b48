package world

import (
	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// Initializer builds a custom scene into a freshly created world.
type Initializer func(*World) error

type options struct {
	engine       engine.Engine
	log          *zap.Logger
	defaultScene bool
	init         Initializer
}

type Option func(*options)

// WithEngine selects the solver session. The reference engine is used
// otherwise.
func WithEngine(e engine.Engine) Option { return func(o *options) { o.engine = e } }

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func WithDefaultScene() Option { return func(o *options) { o.defaultScene = true } }

func WithInitializer(init Initializer) Option { return func(o *options) { o.init = init } }

type bodyOptions struct {
	assetsDir string
	pose      spatial.Pose
	physics   []physics.BodyOption
}

type BodyOption func(*bodyOptions)

// WithAssetsDir resolves the body's path against dir instead of the
// world's assets directory.
func WithAssetsDir(dir string) BodyOption { return func(o *bodyOptions) { o.assetsDir = dir } }

func WithPose(p spatial.Pose) BodyOption { return func(o *bodyOptions) { o.pose = p } }

func WithPosition(x, y, z float64) BodyOption {
	return func(o *bodyOptions) { o.pose.Position = spatial.Vec3{X: x, Y: y, Z: z} }
}

// WithLoadOptions forwards options to the physics loader.
func WithLoadOptions(opts ...physics.BodyOption) BodyOption {
	return func(o *bodyOptions) { o.physics = append(o.physics, opts...) }
}
