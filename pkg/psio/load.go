package psio

import(
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var(
	ErrUnknownFormat = errors.New("unknown image format")
	ErrBadStrip      = errors.New("image can't be split into equal tiles")
	ErrBadSet        = errors.New("wanted one strip image, or four images")
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".bmp":  bmp.Decode,
}

// LoadImage decodes an image file, picking the decoder by extension.
func LoadImage(filename string) (image.Image, error) {
	decode, exists := decoders[strings.ToLower(filepath.Ext(filename))]
	if !exists {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnknownFormat)
	}

	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}
	return img, nil
}

// ColToGray8 is the usual luma weighting of an RGB color, squashed down
// to eight bits.
func ColToGray8(c color.Color) uint8 {
	r, g, b, _ := c.RGBA() // channel values in range [0, 0xFFFF]
	gray := float64(r) * 0.2989 + float64(g) * 0.5870 + float64(b) * 0.1140
	if gray > 0xFFFF { gray = 0xFFFF }

	return uint8(uint16(gray) >> 8)
}

// ToGray converts any image into an 8-bit grayscale one, with bounds
// starting at (0,0). A *image.Gray is returned as is, bounds included,
// so a tile from SplitStrip keeps its offset into the strip.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			g.Pix[g.PixOffset(x,y)] = ColToGray8(img.At(b.Min.X + x, b.Min.Y + y))
		}
	}
	return g
}

// SplitStrip cuts an image made of n equal-width tiles laid side by side
// into the tiles, left to right. The tiles share the strip's pixels.
func SplitStrip(strip *image.Gray, n int) ([]*image.Gray, error) {
	b := strip.Bounds()
	if n <= 0 || b.Dx() == 0 || b.Dx() % n != 0 {
		return nil, fmt.Errorf("%w: %d pixels wide, %d tiles", ErrBadStrip, b.Dx(), n)
	}

	tileWidth := b.Dx() / n
	tiles := make([]*image.Gray, n)
	for i:=0; i<n; i++ {
		r := image.Rect(b.Min.X + i*tileWidth, b.Min.Y, b.Min.X + (i+1)*tileWidth, b.Max.Y)
		tiles[i] = strip.SubImage(r).(*image.Gray)
	}
	return tiles, nil
}

// ExpandPaths turns a list of files and dirs into a list of files,
// recursing into dirs, which are read in name order.
func ExpandPaths(args ...string) ([]string, error) {
	files := []string{}
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return nil, fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %v", arg, err)
			}
			names := []string{}
			for _, content := range contents {
				names = append(names, filepath.Join(arg, content.Name()))
			}
			sort.Strings(names)
			sub, err := ExpandPaths(names...)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)

		default:
			files = append(files, arg)
		}
	}

	return files, nil
}

// LoadSet loads the four views of a set (calibration spheres, or the
// object), either from one strip image holding all four side by side,
// or from four separate images in light order. Dirs are expanded.
func LoadSet(args ...string) ([4]*image.Gray, error) {
	set := [4]*image.Gray{}

	files, err := ExpandPaths(args...)
	if err != nil {
		return set, err
	}

	switch len(files) {
	case 1:
		img, err := LoadImage(files[0])
		if err != nil {
			return set, err
		}
		tiles, err := SplitStrip(ToGray(img), 4)
		if err != nil {
			return set, fmt.Errorf("%s: %w", files[0], err)
		}
		copy(set[:], tiles)

	case 4:
		for i, file := range files {
			img, err := LoadImage(file)
			if err != nil {
				return set, err
			}
			set[i] = ToGray(img)
		}

	default:
		return set, fmt.Errorf("%w, got %d files: %v", ErrBadSet, len(files), files)
	}

	return set, nil
}
