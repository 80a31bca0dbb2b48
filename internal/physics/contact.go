package physics

import (
	"sort"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
)

// ContactPoints lists the contacts of the last completed step involving a,
// and b when b is non-nil. A body reference matches all of its links.
func (p *Physics) ContactPoints(a LinkID, b *LinkID) ([]engine.ContactPoint, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	return p.eng.ContactPoints(engine.ContactQuery{A: a, B: b})
}

func (p *Physics) ContactNormalForces(a LinkID, b *LinkID) ([]float64, error) {
	pts, err := p.ContactPoints(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(pts))
	for i, c := range pts {
		out[i] = c.NormalForce
	}
	return out, nil
}

// ContactBodies lists, without duplicates, the bodies touching a.
func (p *Physics) ContactBodies(a LinkID) ([]BodyID, error) {
	pts, err := p.ContactPoints(a, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[BodyID]bool)
	var out []BodyID
	for _, c := range pts {
		if !seen[c.B.Body] {
			seen[c.B.Body] = true
			out = append(out, c.B.Body)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
