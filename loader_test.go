package pixeltobin

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 128, A: 255})
		}
	}
	return img
}

func TestListImageFilesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	img := gradientImage(2, 2)

	for _, name := range []string{"frame_10.png", "frame_2.png", "frame_1.png", "notes.txt"} {
		if name == "notes.txt" {
			os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644)
			continue
		}
		writePNG(t, filepath.Join(dir, name), img)
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles: %v", err)
	}

	want := []string{"frame_1.png", "frame_2.png", "frame_10.png"}
	if len(files) != len(want) {
		t.Fatalf("found %d files, want %d: %v", len(files), len(want), files)
	}
	for i, path := range files {
		if filepath.Base(path) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(path), want[i])
		}
	}
}

func TestListImageFilesExclusions(t *testing.T) {
	dir := t.TempDir()
	img := gradientImage(2, 2)

	writePNG(t, filepath.Join(dir, "frame_1.png"), img)
	writePNG(t, filepath.Join(dir, "board_cluster_visualization.png"), img)
	writePNG(t, filepath.Join(dir, "comparison_side_by_side.png"), img)
	writePNG(t, filepath.Join(dir, "README_banner.png"), img)

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "frame_1.png" {
		t.Errorf("files = %v, want only frame_1.png", files)
	}
}

func TestLoadSamplePixel(t *testing.T) {
	dir := t.TempDir()
	img := gradientImage(4, 4)
	writePNG(t, filepath.Join(dir, "a_1.png"), img)
	writePNG(t, filepath.Join(dir, "a_2.png"), img)

	cfg := pixelConfig(1)
	seq, err := LoadSample(dir, cfg)
	if err != nil {
		t.Fatalf("LoadSample: %v", err)
	}

	if len(seq.Pixel) != 2 || len(seq.Text) != 0 {
		t.Fatalf("loaded %d pixel / %d text frames, want 2 / 0", len(seq.Pixel), len(seq.Text))
	}
	if seq.FPS != cfg.FPS {
		t.Errorf("FPS = %d, want %d", seq.FPS, cfg.FPS)
	}
	if got := seq.Pixel[0].At(1, 2); got != (color.RGBA{R: 40, G: 80, B: 128, A: 255}) {
		t.Errorf("pixel (1,2) = %+v", got)
	}
}

func TestLoadSampleDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a_1.png"), gradientImage(6, 4))

	cfg := pixelConfig(1) // declares 4x4
	_, err := LoadSample(dir, cfg)
	if err == nil {
		t.Fatal("LoadSample accepted a mismatched image instead of rejecting it")
	}
	if !IsKind(err, KindAsset) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(err), KindAsset, err)
	}
}

func TestLoadSampleDepthViolation(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a_1.png"), gradientImage(4, 4))

	cfg := pixelConfig(1)
	cfg.ColorDepth = 1
	_, err := LoadSample(dir, cfg)
	if !IsKind(err, KindAsset) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(err), KindAsset, err)
	}
}

func TestLoadSampleMalformedImage(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a_1.png"), []byte("not a png"), 0o644)

	_, err := LoadSample(dir, pixelConfig(1))
	if !IsKind(err, KindAsset) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(err), KindAsset, err)
	}
}

func TestLoadSampleNoImages(t *testing.T) {
	_, err := LoadSample(t.TempDir(), pixelConfig(1))
	if !IsKind(err, KindAsset) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(err), KindAsset, err)
	}
}

func TestLoadSampleText(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	writePNG(t, filepath.Join(dir, "glyph_1.png"), img)

	cfg := &SampleConfig{
		Domain:         DomainText,
		Width:          3,
		Height:         2,
		SymbolSet:      []string{" ", "#"},
		EncoderVersion: 1,
		Loop:           1,
		FPS:            DefaultFPS,
		Duration:       []int{250},
		Action:         []Action{ActionUp},
	}

	seq, err := LoadSample(dir, cfg)
	if err != nil {
		t.Fatalf("LoadSample: %v", err)
	}
	if len(seq.Text) != 1 {
		t.Fatalf("loaded %d text frames, want 1", len(seq.Text))
	}

	frame := seq.Text[0]
	if frame.Duration != 250 || frame.Action != ActionUp {
		t.Errorf("frame metadata = %d ms, %s", frame.Duration, frame.Action)
	}
	// white pixels land in the brightest bucket, black in the darkest
	if got := frame.Grid.At(0, 0); got != 1 {
		t.Errorf("cell (0,0) = %d, want 1", got)
	}
	if got := frame.Grid.At(1, 0); got != 0 {
		t.Errorf("cell (1,0) = %d, want 0", got)
	}
}

func TestLoadSampleMetadataCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "glyph_1.png"), gradientImage(3, 2))
	writePNG(t, filepath.Join(dir, "glyph_2.png"), gradientImage(3, 2))

	cfg := &SampleConfig{
		Domain:         DomainText,
		Width:          3,
		Height:         2,
		SymbolSet:      []string{" ", "#"},
		EncoderVersion: 1,
		Loop:           1,
		FPS:            DefaultFPS,
		Duration:       []int{250}, // two images, one duration
	}

	_, err := LoadSample(dir, cfg)
	if !IsKind(err, KindAsset) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(err), KindAsset, err)
	}
}

func TestMixedDelegatesToInnerDomain(t *testing.T) {
	dir := t.TempDir()
	img := gradientImage(4, 4)
	writePNG(t, filepath.Join(dir, "a_1.png"), img)

	cfg := pixelConfig(1)
	cfg.Domain = DomainMixedPixelArt

	seq, err := LoadSample(dir, cfg)
	if err != nil {
		t.Fatalf("LoadSample: %v", err)
	}
	if len(seq.Pixel) != 1 || len(seq.Text) != 0 {
		t.Errorf("mixed/pixelart loaded %d pixel / %d text frames", len(seq.Pixel), len(seq.Text))
	}
}
