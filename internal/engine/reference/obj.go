package reference

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// objBounds scans the vertex records of a Wavefront OBJ file.
func objBounds(path string) (lo, hi spatial.Vec3, err error) {
	f, err := os.Open(path)
	if err != nil {
		return lo, hi, err
	}
	defer f.Close()

	inf := math.Inf(1)
	lo = spatial.Vec3{X: inf, Y: inf, Z: inf}
	hi = lo.Neg()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] != "v" {
			continue
		}
		var c [3]float64
		for i := range c {
			if c[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
				return lo, hi, fmt.Errorf("%w: %s: %v", engine.ErrUnsupportedFormat, path, err)
			}
		}
		v := spatial.Vec3{X: c[0], Y: c[1], Z: c[2]}
		lo, hi = lo.Min(v), hi.Max(v)
		n++
	}
	if err := sc.Err(); err != nil {
		return lo, hi, err
	}
	if n == 0 {
		return lo, hi, fmt.Errorf("%w: %s: no vertices", engine.ErrUnsupportedFormat, path)
	}
	return lo, hi, nil
}
