package main

import (
	"context"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	pixeltobin "github.com/uranushq/pixelart-to-bin"
)

var (
	outputDir = flag.String("o", "artifacts", "set the directory artifacts are written to")
	workers   = flag.Int("j", runtime.NumCPU(), "set the number of samples encoded in parallel")
	verify    = flag.Bool("verify", false, "decode every artifact and compare it against the input")
	viz       = flag.Bool("viz", false, "also write a cluster visualization PNG per pixel sample")
	vizScale  = flag.Int("scale", 50, "set the upscale factor for cluster visualizations")
	debug     = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.Arg(0) == "" {
		log.Println("Usage: pixeltobin [options] dataset_root")
		log.Println("")
		log.Println("pixeltobin encodes every sample found under the dataset root's domain")
		log.Println("trees (pixelart/, text/, mixed/pixelart/, mixed/text/) into one binary")
		log.Println("artifact per sample. Each S#<index> sample folder must hold at least")
		log.Println("one image and a config.json.")
		log.Println("")
		log.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *workers < 1 {
		log.Println("Worker count cannot be less than 1.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	repo := &pixeltobin.Repository{Root: flag.Arg(0)}
	pipeline := &pixeltobin.Pipeline{
		Registry: pixeltobin.DefaultRegistry(),
		Workers:  *workers,
		Verify:   *verify,
	}

	results, err := pipeline.Run(ctx, repo.Samples())
	if err != nil {
		log.Println("Run interrupted:", err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Printf("FAIL %s/%s: %v", res.Domain, res.Key, res.Err)
			continue
		}

		if err := writeArtifact(res); err != nil {
			failed++
			log.Printf("FAIL %s/%s: %v", res.Domain, res.Key, err)
			continue
		}

		if *viz {
			if err := writeVisualization(repo, res); err != nil {
				log.Printf("warning: %s/%s visualization: %v", res.Domain, res.Key, err)
			}
		}

		log.Printf("ok   %s/%s (%d frames, %d bytes)",
			res.Domain, res.Key, res.Artifact.FrameCount, res.Artifact.Size())
	}

	log.Println("")
	log.Println(pixeltobin.Summarize(results).String() + ", took " + time.Since(start).String())

	if failed > 0 || err != nil {
		os.Exit(1)
	}
}

func writeArtifact(res pixeltobin.Result) error {
	dir := filepath.Join(*outputDir, filepath.FromSlash(res.Domain.String()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, res.Key+".bin"))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := res.Artifact.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// writeVisualization renders the cluster map of a pixel sample's first
// frame next to its artifact.
func writeVisualization(repo *pixeltobin.Repository, res pixeltobin.Result) error {
	if res.Domain.Text() || len(res.Config.Cluster) == 0 {
		return nil
	}

	sampleDir := filepath.Join(repo.Root, filepath.FromSlash(res.Domain.String()), res.Key)
	files, err := pixeltobin.ListImageFiles(sampleDir)
	if err != nil {
		return err
	}
	img, err := pixeltobin.LoadImage(files[0])
	if err != nil {
		return err
	}

	rendered, err := pixeltobin.RenderClusterMap(img, res.Config, *vizScale)
	if err != nil {
		return err
	}

	dir := filepath.Join(*outputDir, filepath.FromSlash(res.Domain.String()))
	out, err := os.Create(filepath.Join(dir, res.Key+"_cluster.png"))
	if err != nil {
		return err
	}
	defer out.Close()

	if err := png.Encode(out, rendered); err != nil {
		return err
	}
	return out.Close()
}
