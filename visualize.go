package pixeltobin

import (
	"image"
	"image/color"

	"github.com/disintegration/gift"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// clusterGridSize is the side of one cluster cell in pixels.
const clusterGridSize = 4

var clusterHexPalette = []string{
	"#FF0000", // red
	"#00FF00", // green
	"#0000FF", // blue
	"#FFFF00", // yellow
	"#FF00FF", // magenta
	"#00FFFF", // cyan
	"#FFA500", // orange
	"#800080", // purple
	"#FFC0CB", // pink
	"#A52A2A", // brown
}

func clusterColor(i int) color.RGBA {
	c, err := colorful.Hex(clusterHexPalette[i%len(clusterHexPalette)])
	if err != nil {
		return color.RGBA{R: 255, A: 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// RenderClusterMap upscales a sample's representative image with
// nearest-neighbour resampling and outlines the bounding box of each
// configured cluster over the sample's 4x4 cell grid. The result is a
// plain image; persisting it is the caller's concern.
func RenderClusterMap(img image.Image, cfg *SampleConfig, scale int) (image.Image, error) {
	const op = "visualize.cluster"

	if scale < 1 {
		scale = 1
	}
	if img.Bounds().Dx() != cfg.Width || img.Bounds().Dy() != cfg.Height {
		return nil, errf(op, KindAsset, "image is %dx%d, config declares %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), cfg.Width, cfg.Height)
	}

	cellsPerRow := cfg.Width / clusterGridSize
	cellsPerCol := cfg.Height / clusterGridSize
	if cellsPerRow == 0 || cellsPerCol == 0 {
		return nil, errf(op, KindConfig, "image %dx%d is smaller than a %dpx cluster cell",
			cfg.Width, cfg.Height, clusterGridSize)
	}

	dst := image.NewRGBA(image.Rect(0, 0, cfg.Width*scale, cfg.Height*scale))
	gift.New(gift.Resize(cfg.Width*scale, cfg.Height*scale, gift.NearestNeighborResampling)).Draw(dst, img)

	thickness := scale / 8
	if thickness < 2 {
		thickness = 2
	}

	for i, id := range cfg.ClusterIDs() {
		box, err := clusterBounds(cfg.Cluster[id], cellsPerRow, cellsPerCol)
		if err != nil {
			return nil, errf(op, KindConfig, "cluster %d: %v", id, err)
		}
		drawOutline(dst, scaleRect(box, scale), thickness, clusterColor(i))
	}

	return dst, nil
}

// clusterBounds computes the bounding box (in pixels, unscaled) spanning
// every cell of a cluster.
func clusterBounds(cells []int, cellsPerRow, cellsPerCol int) (image.Rectangle, error) {
	if len(cells) == 0 {
		return image.Rectangle{}, errf("visualize.bounds", KindConfig, "cluster has no cells")
	}

	total := cellsPerRow * cellsPerCol
	box := image.Rectangle{Min: image.Point{X: 1 << 30, Y: 1 << 30}}
	for _, cell := range cells {
		if cell < 0 || cell >= total {
			return image.Rectangle{}, errf("visualize.bounds", KindConfig,
				"cell index %d outside grid of %d cells", cell, total)
		}
		x := (cell % cellsPerRow) * clusterGridSize
		y := (cell / cellsPerRow) * clusterGridSize
		box = box.Union(image.Rect(x, y, x+clusterGridSize, y+clusterGridSize))
	}
	return box, nil
}

func scaleRect(r image.Rectangle, scale int) image.Rectangle {
	return image.Rect(r.Min.X*scale, r.Min.Y*scale, r.Max.X*scale, r.Max.Y*scale)
}

// drawOutline draws a rectangle outline of the given thickness, inset so
// the outline stays within the box.
func drawOutline(dst *image.RGBA, r image.Rectangle, thickness int, col color.RGBA) {
	bounds := dst.Bounds()
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			dst.SetRGBA(x, y, col)
		}
	}

	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			set(x, r.Min.Y+t)
			set(x, r.Max.Y-1-t)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			set(r.Min.X+t, y)
			set(r.Max.X-1-t, y)
		}
	}
}
