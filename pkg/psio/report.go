package psio

import(
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/photostereo/pkg/emath"
	"github.com/abworrall/photostereo/pkg/pstereo"
)

// HeightResolution is the smallest height difference the percentiles
// can tell apart.
const HeightResolution = 1e-3

// A Summary is the human readable account of a reconstruction.
type Summary struct {
	Integrator  string
	Width       int
	Height      int
	Lights      [4]emath.Vec3
	Cond        float64
	Clamped     int
	Background  int

	Min, Max    float64
	Mean        float64
	StdDev      float64
	P50         float64
	P90         float64
	P99         float64
}

// Summarize collects stats over the result. The percentiles come from an
// HDR histogram of the heights, so are only accurate to about
// HeightResolution.
func Summarize(r *pstereo.Result) Summary {
	s := Summary{
		Integrator: r.Integrator,
		Width:      r.Height.Dx(),
		Height:     r.Height.Dy(),
		Cond:       r.Lights.Cond(),
		Clamped:    r.Clamped,
	}
	if r.Normals != nil {
		s.Background = r.Normals.Background
	}
	if r.Lights.L != nil {
		for i:=0; i<4; i++ {
			s.Lights[i] = r.Lights.Direction(i)
		}
	}

	vals := r.Height.Values()
	if len(vals) == 0 {
		return s
	}

	s.Min, s.Max = r.Height.MinMax()
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.StdDev = 0
	}

	// heights above the minimum, in units of HeightResolution, offset by
	// one as the histogram's lowest trackable value is 1
	maxUnits := int64(math.Ceil((s.Max - s.Min) / HeightResolution)) + 2
	hist := hdrhistogram.New(1, maxUnits, 3)
	for _, v := range vals {
		hist.RecordValue(int64(math.Round((v - s.Min) / HeightResolution)) + 1)
	}
	pct := func(q float64) float64 {
		return s.Min + float64(hist.ValueAtQuantile(q) - 1) * HeightResolution
	}
	s.P50, s.P90, s.P99 = pct(50), pct(90), pct(99)

	return s
}

func (s Summary)String() string {
	str := fmt.Sprintf("%dx%d, integrator %s\n", s.Width, s.Height, s.Integrator)
	for i, l := range s.Lights {
		str += fmt.Sprintf("  light %d: %s\n", i, l)
	}
	str += fmt.Sprintf("  cond(L.Lt) %.3g, %d clamped gradients, %d background pixels\n",
		s.Cond, s.Clamped, s.Background)
	str += fmt.Sprintf("  heights: min %.3f, max %.3f, mean %.3f, stddev %.3f\n", s.Min, s.Max, s.Mean, s.StdDev)
	str += fmt.Sprintf("  heights: p50 %.3f, p90 %.3f, p99 %.3f\n", s.P50, s.P90, s.P99)
	return str
}
