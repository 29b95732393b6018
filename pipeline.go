package pixeltobin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// State tracks a sample through the pipeline.
type State string

const (
	StateDiscovered State = "discovered"
	StateLoaded     State = "loaded"
	StateEncoded    State = "encoded"
	StateVerified   State = "verified"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Result is the per-sample outcome of a pipeline run. A successful sample
// ends in StateDone, or StateVerified when round-trip verification ran.
// On failure State is StateFailed and the error's kind names the stage
// that broke; other samples are unaffected.
type Result struct {
	Key      string
	Domain   Domain
	State    State
	Config   *SampleConfig
	Artifact *Artifact
	Err      error
}

// Pipeline runs samples through load, sequence assembly, encode and
// optional round-trip verification. Samples are independent, so the work
// is spread over a bounded worker pool; cancelling the context stops
// scheduling new samples while in-flight ones finish or are abandoned.
type Pipeline struct {
	Registry *Registry
	Workers  int
	Verify   bool
	Logger   *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) registry() *Registry {
	if p.Registry != nil {
		return p.Registry
	}
	return DefaultRegistry()
}

type pipelineJob struct {
	seq  int
	desc Descriptor
}

// Run drains the iterator and returns one Result per sample, in
// discovery order regardless of completion order. The returned error is
// non-nil only when the context was cancelled; per-sample failures live
// in the results.
func (p *Pipeline) Run(ctx context.Context, samples *SampleIter) ([]Result, error) {
	workers := p.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	reg := p.registry()
	log := p.logger()

	jobs := make(chan pipelineJob, workers)

	type indexed struct {
		seq int
		res Result
	}

	var mu sync.Mutex
	var done []indexed

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		seq := 0
		for {
			desc, ok := samples.Next()
			if !ok {
				return nil
			}
			select {
			case jobs <- pipelineJob{seq: seq, desc: desc}:
				seq++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range jobs {
				res := p.processSample(ctx, reg, job.desc)

				if res.Err != nil {
					log.Warn("sample.failed",
						"key", res.Key, "domain", res.Domain.String(),
						"kind", string(ErrKind(res.Err)), "err", res.Err)
				} else {
					log.Info("sample.encoded",
						"key", res.Key, "domain", res.Domain.String(),
						"frames", res.Artifact.FrameCount, "bytes", res.Artifact.Size())
				}

				mu.Lock()
				done = append(done, indexed{seq: job.seq, res: res})
				mu.Unlock()

				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			return nil
		})
	}

	err := g.Wait()

	sort.Slice(done, func(i, j int) bool { return done[i].seq < done[j].seq })
	results := make([]Result, 0, len(done))
	for _, d := range done {
		results = append(results, d.res)
	}

	return results, err
}

func (p *Pipeline) processSample(ctx context.Context, reg *Registry, desc Descriptor) Result {
	res := Result{Key: desc.Key, Domain: desc.Domain, State: StateDiscovered}

	fail := func(err error) Result {
		res.State = StateFailed
		res.Err = withSample(err, desc.Key)
		return res
	}

	if desc.Err != nil {
		return fail(desc.Err)
	}
	if err := ctx.Err(); err != nil {
		return fail(wrap("pipeline", KindCanceled, "", err))
	}

	cfg, err := LoadConfig(desc.ConfigPath())
	if err != nil {
		return fail(err)
	}
	if cfg.Domain != desc.Domain {
		return fail(errf("pipeline.config", KindConfig,
			"config declares domain %s but sample lives under %s", cfg.Domain, desc.Domain))
	}
	res.Config = cfg

	seq, err := LoadSample(desc.Dir, cfg)
	if err != nil {
		return fail(err)
	}
	res.State = StateLoaded

	seq = BuildSequence(cfg, seq)

	art, err := Encode(reg, cfg, seq)
	if err != nil {
		return fail(err)
	}
	res.State = StateEncoded
	res.Artifact = art

	if p.Verify {
		decoded, err := DecodeArtifact(reg, art)
		if err != nil {
			return fail(err)
		}
		if !decoded.Equal(seq) {
			return fail(errf("pipeline.verify", KindDecode,
				"decoded sequence differs from encoded input"))
		}
		res.State = StateVerified
		return res
	}

	res.State = StateDone
	return res
}

// withSample stamps the sample key onto a pipeline error that lacks one.
func withSample(err error, key string) error {
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Sample == "" {
		pe.Sample = key
	}
	return err
}

// Summary aggregates a run's per-sample outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	ByKind    map[Kind]int
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), ByKind: make(map[Kind]int)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			s.ByKind[ErrKind(r.Err)]++
		} else {
			s.Succeeded++
		}
	}
	return s
}

func (s Summary) String() string {
	if s.Failed == 0 {
		return fmt.Sprintf("%d samples succeeded", s.Succeeded)
	}

	kinds := make([]string, 0, len(s.ByKind))
	for kind := range s.ByKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, s.ByKind[Kind(kind)]))
	}
	return fmt.Sprintf("%d samples succeeded, %d failed (%s)",
		s.Succeeded, s.Failed, strings.Join(parts, ", "))
}
