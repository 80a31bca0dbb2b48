package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

var (
	ErrNoCandidates = errors.New("optim: empty grid")
	ErrNoMetric     = errors.New("optim: metric not reported")
)

// Evaluate runs one candidate parameter set.
type Evaluate func(ctx context.Context, params map[string]float64) (*sim.Result, error)

// GridSearch tries every combination of parameter values and keeps the one
// minimising a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ParseAxis reads "name=v1,v2,..." into a parameter name and its values.
func ParseAxis(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("optim: want name=v1,v2,... got %q", s)
	}
	fields := strings.Split(list, ",")
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: %s: %w", name, err)
		}
		vals[i] = v
	}
	return name, vals, nil
}

// Candidates enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Candidates() []map[string]float64 {
	if len(g.paramNames) == 0 {
		return nil
	}
	var out []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g.paramNames) {
			out = append(out, current)
			return
		}
		for _, val := range g.ranges[depth] {
			next := make(map[string]float64, len(current)+1)
			for k, v := range current {
				next[k] = v
			}
			next[g.paramNames[depth]] = val
			walk(depth+1, next)
		}
	}
	walk(0, map[string]float64{})
	return out
}

type Trial struct {
	Params map[string]float64
	Value  float64
}

// Search evaluates every candidate, at most limit at a time, and returns
// all trials in grid order plus the best one. Ties keep the earlier
// candidate.
func (g *GridSearch) Search(ctx context.Context, limit int, eval Evaluate, metric string) (Trial, []Trial, error) {
	cands := g.Candidates()
	if len(cands) == 0 {
		return Trial{}, nil, ErrNoCandidates
	}
	results, err := sim.Parallel(ctx, len(cands), limit, func(ctx context.Context, i int) (*sim.Result, error) {
		return eval(ctx, cands[i])
	})
	if err != nil {
		return Trial{}, nil, err
	}

	best := Trial{Value: math.Inf(1)}
	trials := make([]Trial, len(cands))
	for i, res := range results {
		v, ok := res.Metrics[metric]
		if !ok {
			return Trial{}, nil, fmt.Errorf("%w: %s", ErrNoMetric, metric)
		}
		trials[i] = Trial{Params: cands[i], Value: v}
		if v < best.Value {
			best = trials[i]
		}
	}
	return best, trials, nil
}
