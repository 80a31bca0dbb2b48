package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

type recordingBackend struct {
	created []engine.VisualShape
	poses   map[render.Handle]spatial.Pose
	removed []render.Handle
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{poses: make(map[render.Handle]spatial.Pose)}
}

func (r *recordingBackend) Create(vs engine.VisualShape) (render.Handle, error) {
	r.created = append(r.created, vs)
	return render.Handle(len(r.created) - 1), nil
}

func (r *recordingBackend) Update(h render.Handle, pose spatial.Pose) error {
	r.poses[h] = pose
	return nil
}

func (r *recordingBackend) Remove(h render.Handle) error {
	r.removed = append(r.removed, h)
	delete(r.poses, h)
	return nil
}

func newWorld(t *testing.T) *world.World {
	t.Helper()
	dir, err := assets.Extract(t.TempDir())
	require.NoError(t, err)
	cfg := config.GetWorldPreset("two_link_reach")
	require.NotNil(t, cfg)
	cfg.AssetsDir = dir
	w, err := world.New(*cfg, world.WithDefaultScene())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestSyncCreatesOncePerShape(t *testing.T) {
	w := newWorld(t)
	backend := newRecordingBackend()
	a := render.NewAdapter(w.Physics(), backend)

	require.NoError(t, a.Sync())
	created := len(backend.created)
	require.NotZero(t, created)
	assert.Len(t, a.Keys(), created)

	require.NoError(t, w.StepSimulation())
	require.NoError(t, a.Sync())
	assert.Len(t, backend.created, created, "known shapes are updated, not recreated")
}

func TestSyncTracksLinkPose(t *testing.T) {
	w := newWorld(t)
	arm := w.Arms()[0]
	backend := newRecordingBackend()
	a := render.NewAdapter(w.Physics(), backend)
	require.NoError(t, a.Sync())

	upper := arm.JointIDs()[0].Link()
	h, ok := a.Handle(render.Key{Body: upper.Body, Link: upper.Link})
	require.True(t, ok)
	before := backend.poses[h]

	require.NoError(t, w.Physics().SetJointPosition(arm.JointIDs()[0], 1.2))
	require.NoError(t, a.Sync())
	after := backend.poses[h]
	assert.False(t, before.Position.ApproxEqual(after.Position, 1e-6))

	frame, err := w.Physics().LinkPose(upper)
	require.NoError(t, err)
	want := frame.TransformPoint(spatial.Vec3{X: 0.25})
	assert.True(t, want.ApproxEqual(after.Position, 1e-9), "want %v got %v", want, after.Position)
}

func TestSyncDropsRemovedBodies(t *testing.T) {
	w := newWorld(t)
	cube, err := w.AddBody(assets.Cube, world.WithPosition(0, 0, 1))
	require.NoError(t, err)

	backend := newRecordingBackend()
	a := render.NewAdapter(w.Physics(), backend)
	require.NoError(t, a.Sync())
	_, ok := a.Handle(render.Key{Body: cube.ID(), Link: engine.BaseLink})
	require.True(t, ok)

	require.NoError(t, w.RemoveBody(cube.ID()))
	require.NoError(t, a.Sync())
	assert.Len(t, backend.removed, 1)
	_, ok = a.Handle(render.Key{Body: cube.ID(), Link: engine.BaseLink})
	assert.False(t, ok)
}
