// Command mkboard generates synthetic board samples (blinking solid-color
// frames plus a config.json) for exercising the encoding pipeline end to
// end without hand-drawn pixel art.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	pixeltobin "github.com/uranushq/pixelart-to-bin"
)

var (
	rootDir   = flag.String("o", "data", "set the dataset root the sample is written under")
	domain    = flag.String("domain", "pixelart", "set the sample's domain (pixelart or mixed/pixelart)")
	index     = flag.Int("n", 1, "set the sample index (S#<n>)")
	width     = flag.Int("w", 12, "set the board width in pixels")
	height    = flag.Int("h", 12, "set the board height in pixels")
	colors    = flag.String("colors", "#FF0000,#00FF00,#0000FF", "comma-separated hex colors to blink through")
	perColor  = flag.Int("frames", 5, "set how many frames each color stays")
	fps       = flag.Int("fps", pixeltobin.DefaultFPS, "set the frame rate written to config.json")
	loop      = flag.Int("loop", 1, "set the loop count written to config.json")
	countdown = flag.Bool("countdown", false, "enable countdown frames in config.json")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	d, err := pixeltobin.ParseDomain(*domain)
	if err != nil {
		log.Println("Invalid domain:", err)
		os.Exit(1)
	}
	if d.Text() {
		log.Println("mkboard only generates pixel-domain samples.")
		os.Exit(1)
	}

	var palette []color.RGBA
	for _, hex := range strings.Split(*colors, ",") {
		c, err := colorful.Hex(strings.TrimSpace(hex))
		if err != nil {
			log.Printf("Invalid color %q: %v", hex, err)
			os.Exit(1)
		}
		r, g, b := c.RGB255()
		palette = append(palette, color.RGBA{R: r, G: g, B: b, A: 255})
	}

	dir := filepath.Join(*rootDir, filepath.FromSlash(d.String()), fmt.Sprintf("S#%d", *index))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Println("Failed to create sample directory:", err)
		os.Exit(1)
	}

	frame := 0
	for _, col := range palette {
		grid := pixeltobin.SolidGrid(*width, *height, col)
		for i := 0; i < *perColor; i++ {
			frame++
			if err := writeFrame(dir, frame, grid); err != nil {
				log.Println("Failed to write frame:", err)
				os.Exit(1)
			}
		}
	}

	cfg := map[string]interface{}{
		"domain":         d.String(),
		"width":          *width,
		"height":         *height,
		"colorDepth":     8,
		"encoderVersion": 1,
		"fps":            *fps,
		"loop":           *loop,
		"countDown":      *countdown,
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Println("Failed to marshal config:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644); err != nil {
		log.Println("Failed to write config.json:", err)
		os.Exit(1)
	}

	log.Printf("Wrote %d frames and config.json to %s", frame, dir)
}

func writeFrame(dir string, n int, grid *pixeltobin.PixelGrid) error {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("board_%d.png", n)))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, grid.Image()); err != nil {
		return err
	}
	return f.Close()
}
