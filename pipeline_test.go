package pixeltobin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelinePartialFailure(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)

	for i := 1; i <= 10; i++ {
		cfg := pixelConfigJSON
		if i == 7 {
			// width missing: must be rejected by config validation
			cfg = `{"domain":"pixelart","height":4,"colorDepth":8,"encoderVersion":1}`
		}
		writeSampleDir(t, root, DomainPixelArt, fmt.Sprintf("S#%d", i), cfg, 2, 4, 4)
	}

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 4, Verify: true, Logger: discardLogger()}

	results, err := pipeline.Run(context.Background(), repo.Samples())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}

	for i, res := range results {
		wantKey := fmt.Sprintf("S#%d", i+1)
		if res.Key != wantKey {
			t.Errorf("results[%d].Key = %s, want %s (results must follow discovery order)", i, res.Key, wantKey)
		}

		if res.Key == "S#7" {
			if res.State != StateFailed || !IsKind(res.Err, KindConfig) {
				t.Errorf("S#7: state = %s, kind = %q, want failed/config", res.State, ErrKind(res.Err))
			}
			continue
		}

		if res.Err != nil {
			t.Errorf("%s failed: %v", res.Key, res.Err)
			continue
		}
		if res.State != StateVerified {
			t.Errorf("%s: state = %s, want verified", res.Key, res.State)
		}
		if res.Artifact == nil || res.Artifact.FrameCount != 2 {
			t.Errorf("%s: artifact missing or wrong frame count", res.Key)
		}
	}

	summary := Summarize(results)
	if summary.Succeeded != 9 || summary.Failed != 1 || summary.ByKind[KindConfig] != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPipelineErrorsCarrySampleKey(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)
	writeSampleDir(t, root, DomainPixelArt, "S#1",
		`{"domain":"pixelart","height":4,"colorDepth":8,"encoderVersion":1}`, 1, 4, 4)

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 1, Logger: discardLogger()}

	results, err := pipeline.Run(context.Background(), repo.Samples())
	if err != nil || len(results) != 1 {
		t.Fatalf("Run: %v (%d results)", err, len(results))
	}

	var pe *PipelineError
	if !errors.As(results[0].Err, &pe) {
		t.Fatalf("result error is %T, want *PipelineError", results[0].Err)
	}
	if pe.Sample != "S#1" {
		t.Errorf("error sample = %q, want S#1", pe.Sample)
	}
}

// Config validation happens before any image is touched: a sample with a
// broken config and an unreadable image must fail with the config error.
func TestPipelineValidatesConfigFirst(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)

	dir := writeSampleDir(t, root, DomainPixelArt, "S#1",
		`{"domain":"pixelart","height":4,"colorDepth":8,"encoderVersion":1}`, 0, 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "frame_1.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 1, Logger: discardLogger()}

	results, err := pipeline.Run(context.Background(), repo.Samples())
	if err != nil || len(results) != 1 {
		t.Fatalf("Run: %v (%d results)", err, len(results))
	}
	if !IsKind(results[0].Err, KindConfig) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(results[0].Err), KindConfig, results[0].Err)
	}
}

func TestPipelineDomainMismatch(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)

	// sample lives under text/ but its config claims pixelart
	writeSampleDir(t, root, DomainText, "S#1", pixelConfigJSON, 1, 4, 4)

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 1, Logger: discardLogger()}

	results, err := pipeline.Run(context.Background(), repo.Samples())
	if err != nil || len(results) != 1 {
		t.Fatalf("Run: %v (%d results)", err, len(results))
	}
	if !IsKind(results[0].Err, KindConfig) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(results[0].Err), KindConfig, results[0].Err)
	}
}

// A successful sample ends in exactly one terminal state: verified when
// round-trip verification ran, done otherwise.
func TestPipelineTerminalStates(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)
	writeSampleDir(t, root, DomainPixelArt, "S#1", pixelConfigJSON, 1, 4, 4)

	for _, tc := range []struct {
		name   string
		verify bool
		want   State
	}{
		{"without verification", false, StateDone},
		{"with verification", true, StateVerified},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := &Pipeline{Workers: 1, Verify: tc.verify, Logger: discardLogger()}
			results, err := pipeline.Run(context.Background(), (&Repository{Root: root}).Samples())
			if err != nil || len(results) != 1 {
				t.Fatalf("Run: %v (%d results)", err, len(results))
			}
			if results[0].Err != nil {
				t.Fatalf("sample failed: %v", results[0].Err)
			}
			if results[0].State != tc.want {
				t.Errorf("state = %s, want %s", results[0].State, tc.want)
			}
		})
	}
}

func TestPipelineAllDomains(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)

	writeSampleDir(t, root, DomainPixelArt, "S#1", pixelConfigJSON, 2, 4, 4)
	writeSampleDir(t, root, DomainText, "S#1",
		`{"domain":"text","width":4,"height":4,"symbolSet":[" ","#"],"encoderVersion":1}`, 1, 4, 4)
	writeSampleDir(t, root, DomainMixedPixelArt, "S#1",
		`{"domain":"mixed/pixelart","width":4,"height":4,"colorDepth":8,"encoderVersion":2}`, 1, 4, 4)
	writeSampleDir(t, root, DomainMixedText, "S#1",
		`{"domain":"mixed/text","width":4,"height":4,"symbolSet":[" ","#"],"encoderVersion":1}`, 1, 4, 4)

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 2, Verify: true, Logger: discardLogger()}

	results, err := pipeline.Run(context.Background(), repo.Samples())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	for _, res := range results {
		if res.Err != nil {
			t.Errorf("%s/%s failed: %v", res.Domain, res.Key, res.Err)
			continue
		}
		if res.Artifact.Header.Domain != res.Domain {
			t.Errorf("%s/%s: artifact header tagged %s", res.Domain, res.Key, res.Artifact.Header.Domain)
		}
		// decoding must need nothing but the artifact bytes
		if _, _, err := Decode(DefaultRegistry(), res.Artifact.Bytes()); err != nil {
			t.Errorf("%s/%s: standalone decode: %v", res.Domain, res.Key, err)
		}
	}
}

func TestPipelineCancellation(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)
	for i := 1; i <= 20; i++ {
		writeSampleDir(t, root, DomainPixelArt, fmt.Sprintf("S#%d", i), pixelConfigJSON, 1, 4, 4)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &Repository{Root: root}
	pipeline := &Pipeline{Workers: 2, Logger: discardLogger()}

	results, err := pipeline.Run(ctx, repo.Samples())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(results) == 20 {
		t.Error("cancelled run still processed every sample")
	}
	// samples are all valid, so any per-sample failure is the cancellation
	for _, res := range results {
		if res.Err != nil && !IsKind(res.Err, KindCanceled) {
			t.Errorf("%s: error kind = %q, want %q: %v", res.Key, ErrKind(res.Err), KindCanceled, res.Err)
		}
	}
}

// A sample abandoned by cancellation is reported under its own kind, not
// conflated with a discovery failure, and still unwraps to the context
// error.
func TestPipelineCancelledSampleKind(t *testing.T) {
	root := t.TempDir()
	makeDomainRoots(t, root)
	dir := writeSampleDir(t, root, DomainPixelArt, "S#1", pixelConfigJSON, 1, 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := &Pipeline{Workers: 1, Logger: discardLogger()}
	res := pipeline.processSample(ctx, DefaultRegistry(), Descriptor{
		Key: "S#1", Domain: DomainPixelArt, Dir: dir,
	})

	if res.State != StateFailed {
		t.Errorf("state = %s, want failed", res.State)
	}
	if !IsKind(res.Err, KindCanceled) {
		t.Errorf("error kind = %q, want %q: %v", ErrKind(res.Err), KindCanceled, res.Err)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("error does not unwrap to context.Canceled: %v", res.Err)
	}
	if got := Summarize([]Result{res}).ByKind[KindCanceled]; got != 1 {
		t.Errorf("summary counts %d canceled samples, want 1", got)
	}
}
