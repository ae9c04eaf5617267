package psio

import(
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

type rat64 [2]int64

func (r rat64)Float() float64 {
	if r[1] == 0 {
		return 0
	}
	return float64(r[0]) / float64(r[1])
}

// An Exposure is the triple that decides how much light it took to
// expose a pixel. Lambertian photometric stereo compares intensities
// across the four views, so they all need the same exposure.
type Exposure struct {
	Filename     string
	ISO          int64
	FNumber      rat64  // f/5.6 is {56,10}
	ShutterSpeed rat64  // 1/500, 1/1000, etc.
}

func (e Exposure)String() string {
	s := fmt.Sprintf("f/%.1f", e.FNumber.Float())
	if e.ShutterSpeed[1] != 1 {
		s += fmt.Sprintf(", %d/%d", e.ShutterSpeed[0], e.ShutterSpeed[1])
	} else {
		s += fmt.Sprintf(", %d", e.ShutterSpeed[0])
	}
	return s + fmt.Sprintf(", ISO%d", e.ISO)
}

// Same compares the exposures as values, so 10/20 matches 1/2.
func (e Exposure)Same(e2 Exposure) bool {
	return e.ISO == e2.ISO &&
		e.FNumber[0] * e2.FNumber[1] == e2.FNumber[0] * e.FNumber[1] &&
		e.ShutterSpeed[0] * e2.ShutterSpeed[1] == e2.ShutterSpeed[0] * e.ShutterSpeed[1]
}

// ReadExposure pulls the exposure triple out of a file's EXIF data.
func ReadExposure(filename string) (Exposure, error) {
	e := Exposure{Filename: filename}

	reader, err := os.Open(filename)
	if err != nil {
		return e, fmt.Errorf("open+r exif '%s': %v", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return e, fmt.Errorf("exif parsing '%s': %v", filename, err)
	}

	if tag,err := ex.Get(exif.ISOSpeedRatings); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else if val,err := tag.Int64(0); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else {
		e.ISO = val
	}

	if tag,err := ex.Get(exif.FNumber); err != nil {
		return e, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else if num,denom,err := tag.Rat2(0); err != nil {
		return e, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else {
		e.FNumber = rat64{num,denom}
	}

	if tag,err := ex.Get(exif.ExposureTime); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else if num,denom,err := tag.Rat2(0); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else {
		e.ShutterSpeed = rat64{num,denom}
	}

	return e, nil
}

// CheckExposures reads the exposure of every file that has EXIF data,
// and complains if they don't all match. Files without EXIF (most PNGs,
// say) are returned in skipped, and don't count.
func CheckExposures(filenames ...string) (exposures []Exposure, skipped []string, err error) {
	for _, filename := range filenames {
		e, err := ReadExposure(filename)
		if err != nil {
			skipped = append(skipped, filename)
			continue
		}
		exposures = append(exposures, e)
	}

	for i:=1; i<len(exposures); i++ {
		if e := exposures[i]; !e.Same(exposures[0]) {
			return exposures, skipped, fmt.Errorf("exposure mismatch: %s is [%s], but %s is [%s]",
				e.Filename, e, exposures[0].Filename, exposures[0])
		}
	}

	return exposures, skipped, nil
}
