package main

import(
	"flag"
	"log"

	"github.com/abworrall/photostereo/pkg/psio"
)

var(
	fHint string
	fResult string
	fWidth int
	fOutputDir string
	fPlot bool
)

func init() {
	flag.StringVar(&fHint, "hint", "hint.txt", "reference height dump, one value per line")
	flag.StringVar(&fResult, "result", "result.txt", "reconstructed height dump, as written by photostereo")
	flag.IntVar(&fWidth, "width", 300, "width of the height fields, in pixels")
	flag.StringVar(&fOutputDir, "o", "output", "dir to write per-row CSVs and plots into")
	flag.BoolVar(&fPlot, "plot", true, "plot each row as a PNG")
	flag.Parse()
}

func main() {
	hint, err := psio.ReadHeightText(fHint, fWidth)
	if err != nil {
		log.Fatal(err)
	}
	result, err := psio.ReadHeightText(fResult, fWidth)
	if err != nil {
		log.Fatal(err)
	}

	diffs, err := psio.CompareRows(hint, result, fOutputDir, fPlot)
	if err != nil {
		log.Fatal(err)
	}

	if len(diffs) == 0 {
		log.Fatalf("%s: no rows to compare\n", fResult)
	}

	worst := diffs[0]
	for _, d := range diffs {
		if d.MaxDiff > worst.MaxDiff {
			worst = d
		}
	}
	log.Printf("compared %d rows into %s; worst %s\n", len(diffs), fOutputDir, worst)
}
