package psio

import(
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/abworrall/photostereo/pkg/emath"
)

// A RowDiff summarizes how far one row of a result strays from the hint.
type RowDiff struct {
	Row     int
	MaxDiff float64
	RMS     float64
}

func (rd RowDiff)String() string {
	return fmt.Sprintf("row %03d: max |diff| %8.4f, rms %8.4f", rd.Row, rd.MaxDiff, rd.RMS)
}

// CompareRows lines up a reconstructed height field against a reference
// ("hint") one of the same size. For each row it writes outDir/NNN.csv,
// with lines of "column, hint, result", and outDir/NNN.png plotting the
// two profiles. If doPlot is false only the CSVs are written.
func CompareRows(hint, result emath.FloatGrid, outDir string, doPlot bool) ([]RowDiff, error) {
	if hint.Dx() != result.Dx() || hint.Dy() != result.Dy() {
		return nil, fmt.Errorf("hint is %dx%d, result is %dx%d", hint.Dx(), hint.Dy(), result.Dx(), result.Dy())
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir '%s': %v", outDir, err)
	}

	diffs := []RowDiff{}
	for row:=0; row<hint.Dy(); row++ {
		rd := RowDiff{Row: row}
		hintPts   := make(plotter.XYs, hint.Dx())
		resultPts := make(plotter.XYs, hint.Dx())

		csvFilename := filepath.Join(outDir, fmt.Sprintf("%03d.csv", row))
		writer, err := os.Create(csvFilename)
		if err != nil {
			return diffs, fmt.Errorf("open+w '%s': %v", csvFilename, err)
		}
		w := bufio.NewWriter(writer)

		sumSq := 0.0
		for c:=0; c<hint.Dx(); c++ {
			h, r := hint.Get(c,row), result.Get(c,row)
			fmt.Fprintf(w, "%d, %f, %f\n", c, h, r)

			hintPts[c]   = plotter.XY{X: float64(c), Y: h}
			resultPts[c] = plotter.XY{X: float64(c), Y: r}
			rd.MaxDiff = math.Max(rd.MaxDiff, math.Abs(r-h))
			sumSq += (r-h) * (r-h)
		}
		rd.RMS = math.Sqrt(sumSq / float64(hint.Dx()))

		if err := w.Flush(); err != nil {
			writer.Close()
			return diffs, fmt.Errorf("write '%s': %v", csvFilename, err)
		}
		writer.Close()

		if doPlot {
			pngFilename := filepath.Join(outDir, fmt.Sprintf("%03d.png", row))
			if err := plotRow(row, hintPts, resultPts, pngFilename); err != nil {
				return diffs, err
			}
		}

		diffs = append(diffs, rd)
	}

	return diffs, nil
}

func plotRow(row int, hintPts, resultPts plotter.XYs, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Row %03d", row)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Height"

	for _, series := range []struct {
		name string
		pts  plotter.XYs
		col  color.Color
	}{
		{"hint", hintPts, color.RGBA{R: 0x20, G: 0x60, B: 0xc0, A: 0xff}},
		{"result", resultPts, color.RGBA{R: 0xd0, G: 0x40, B: 0x20, A: 0xff}},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return err
		}
		line.Color = series.col
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 3*vg.Inch, filename); err != nil {
		return fmt.Errorf("plot '%s': %v", filename, err)
	}
	return nil
}
