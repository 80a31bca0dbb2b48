package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

func TestCandidatesOrder(t *testing.T) {
	g := NewGridSearch([]string{"Kp", "Kd"}, [][]float64{{1, 2}, {10, 20, 30}})
	c := g.Candidates()
	if len(c) != 6 {
		t.Fatalf("got %d candidates", len(c))
	}
	if c[0]["Kp"] != 1 || c[0]["Kd"] != 10 || c[1]["Kd"] != 20 || c[3]["Kp"] != 2 {
		t.Errorf("unexpected order %v", c)
	}
}

func TestSearchPicksMinimum(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{{-1, 0, 1, 2}, {0, 1}})
	eval := func(_ context.Context, p map[string]float64) (*sim.Result, error) {
		v := (p["x"]-1)*(p["x"]-1) + p["y"]
		return &sim.Result{Metrics: map[string]float64{"cost": v}}, nil
	}
	best, trials, err := g.Search(context.Background(), 3, eval, "cost")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 8 {
		t.Errorf("got %d trials", len(trials))
	}
	if best.Params["x"] != 1 || best.Params["y"] != 0 || best.Value != 0 {
		t.Errorf("best = %+v", best)
	}
}

func TestSearchErrors(t *testing.T) {
	ctx := context.Background()
	if _, _, err := NewGridSearch(nil, nil).Search(ctx, 0, nil, "cost"); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}

	g := NewGridSearch([]string{"x"}, [][]float64{{1}})
	empty := func(context.Context, map[string]float64) (*sim.Result, error) {
		return &sim.Result{Metrics: map[string]float64{}}, nil
	}
	if _, _, err := g.Search(ctx, 0, empty, "cost"); !errors.Is(err, ErrNoMetric) {
		t.Errorf("expected ErrNoMetric, got %v", err)
	}

	boom := errors.New("boom")
	failing := func(context.Context, map[string]float64) (*sim.Result, error) { return nil, boom }
	if _, _, err := g.Search(ctx, 0, failing, "cost"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
}

func TestParseAxis(t *testing.T) {
	name, vals, err := ParseAxis("Kp=10, 20,40")
	if err != nil || name != "Kp" || len(vals) != 3 || vals[1] != 20 {
		t.Errorf("got %q %v %v", name, vals, err)
	}
	for _, bad := range []string{"Kp", "=1", "Kp=", "Kp=a"} {
		if _, _, err := ParseAxis(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
