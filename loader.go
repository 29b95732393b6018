package pixeltobin

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/gift"
	colorful "github.com/lucasb-eyer/go-colorful"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

// Filenames containing these substrings are generated outputs or
// documentation, never animation frames.
var excludePatterns = []string{
	"visualization",
	"cluster_vis",
	"comparison",
	"config",
	"readme",
	"sample",
	"example",
}

// ListImageFiles returns the animation frames of a sample directory in
// natural order, so S#1/frame_2.png sorts before S#1/frame_10.png.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrap("loader.list", KindAsset, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !imageExtensions[filepath.Ext(name)] {
			continue
		}
		excluded := false
		for _, pattern := range excludePatterns {
			if strings.Contains(name, pattern) {
				excluded = true
				break
			}
		}
		if !excluded {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return naturalLess(filepath.Base(files[i]), filepath.Base(files[j]))
	})
	return files, nil
}

// naturalLess compares filenames treating digit runs as numbers.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ad, an := leadingInt(a)
		bd, bn := leadingInt(b)
		if an > 0 && bn > 0 {
			if ad != bd {
				return ad < bd
			}
			a, b = a[an:], b[bn:]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingInt(s string) (value, width int) {
	for width < len(s) && s[width] >= '0' && s[width] <= '9' {
		value = value*10 + int(s[width]-'0')
		width++
	}
	return value, width
}

// LoadImage decodes a single image file. PNG, JPEG, GIF and BMP are
// recognized.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap("loader.open", KindAsset, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrap("loader.decode", KindAsset, path, err)
	}
	return img, nil
}

// LoadSample materializes a sample's image assets into a sequence
// matching its configuration. Pixel domains produce pixel grids, text
// domains produce symbol grids; mixed domains follow their inner tag.
// Dimension or depth disagreements with the config fail the sample.
func LoadSample(dir string, cfg *SampleConfig) (*Sequence, error) {
	const op = "loader.sample"

	files, err := ListImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &PipelineError{Op: op, Kind: KindAsset, Path: dir,
			Err: fmt.Errorf("no image assets found")}
	}

	if cfg.Domain.Text() {
		if cfg.Duration != nil && len(cfg.Duration) != len(files) {
			return nil, errf(op, KindAsset, "config declares %d durations but sample has %d images",
				len(cfg.Duration), len(files))
		}
		if cfg.Action != nil && len(cfg.Action) != len(files) {
			return nil, errf(op, KindAsset, "config declares %d actions but sample has %d images",
				len(cfg.Action), len(files))
		}
	}

	seq := &Sequence{FPS: cfg.FPS}
	for i, path := range files {
		img, err := LoadImage(path)
		if err != nil {
			return nil, err
		}
		if err := checkDimensions(img, cfg, path); err != nil {
			return nil, err
		}

		if cfg.Domain.Text() {
			grid := textGridFromImage(img, len(cfg.SymbolSet))
			seq.Text = append(seq.Text, TextFrame{
				Grid:     grid,
				Duration: cfg.frameDuration(i),
				Action:   cfg.frameAction(i),
			})
		} else {
			grid, err := pixelGridFromImage(img, cfg, path)
			if err != nil {
				return nil, err
			}
			seq.Pixel = append(seq.Pixel, grid)
		}
	}
	return seq, nil
}

func checkDimensions(img image.Image, cfg *SampleConfig, path string) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w != cfg.Width || h != cfg.Height {
		return &PipelineError{
			Op:   "loader.dimensions",
			Kind: KindAsset,
			Path: path,
			Err:  fmt.Errorf("image is %dx%d, config declares %dx%d", w, h, cfg.Width, cfg.Height),
		}
	}
	return nil
}

// pixelGridFromImage copies the image into a grid, validating the
// declared color depth. Depth 1 requires strictly black or white pixels;
// it is never approximated by thresholding.
func pixelGridFromImage(img image.Image, cfg *SampleConfig, path string) (*PixelGrid, error) {
	bounds := img.Bounds()
	grid := NewPixelGrid(cfg.Width, cfg.Height)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			p := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}

			if cfg.ColorDepth == 1 {
				white := p == color.RGBA{R: 255, G: 255, B: 255, A: 255}
				black := p == color.RGBA{A: 255}
				if !white && !black {
					return nil, &PipelineError{
						Op:   "loader.depth",
						Kind: KindAsset,
						Path: path,
						Err:  fmt.Errorf("pixel (%d,%d) is not monochrome under color depth 1", x, y),
					}
				}
			}
			grid.Set(x, y, p)
		}
	}
	return grid, nil
}

// textGridFromImage buckets glyph pixels into the symbol set by
// luminance: darkest bucket maps to symbol 0, brightest to the last.
func textGridFromImage(img image.Image, symbols int) *TextGrid {
	bounds := img.Bounds()

	gray := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	gift.New(gift.Grayscale()).Draw(gray, img)

	grid := NewTextGrid(bounds.Dx(), bounds.Dy())
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			col, ok := colorful.MakeColor(gray.At(x, y))
			if !ok {
				grid.Set(x, y, 0)
				continue
			}
			l, _, _ := col.Lab()
			bucket := int(l * float64(symbols))
			if bucket >= symbols {
				bucket = symbols - 1
			}
			if bucket < 0 {
				bucket = 0
			}
			grid.Set(x, y, uint16(bucket))
		}
	}
	return grid
}

// Image converts a pixel grid back into a standard image, used by
// verification tooling and the board generator.
func (g *PixelGrid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			img.SetRGBA(x, y, g.At(x, y))
		}
	}
	return img
}
