package pixeltobin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Descriptor identifies one discovered sample. When discovery itself
// fails for the sample (missing domain root, missing config.json, no
// image assets) the descriptor carries the error instead of aborting the
// iteration, so one broken sample never hides the rest.
type Descriptor struct {
	Key    string // "S#<index>"
	Index  int
	Domain Domain
	Dir    string
	Err    error
}

// Repository discovers samples under a dataset root holding the four
// domain trees. It never mutates the underlying storage.
type Repository struct {
	Root string
}

// Samples returns a fresh lazy iterator over the repository. Samples are
// yielded domain-by-domain in the fixed order pixelart, text,
// mixed/pixelart, mixed/text, and by ascending numeric index within a
// domain. Each call restarts from the beginning.
func (r *Repository) Samples() *SampleIter {
	return &SampleIter{root: r.Root, domains: Domains()}
}

// Collect drains a fresh iterator into a slice.
func (r *Repository) Collect() []Descriptor {
	var all []Descriptor
	it := r.Samples()
	for {
		desc, ok := it.Next()
		if !ok {
			break
		}
		all = append(all, desc)
	}
	return all
}

// SampleIter walks the domain trees one directory listing at a time.
type SampleIter struct {
	root    string
	domains []Domain
	pending []Descriptor
}

// Next yields the next sample descriptor, advancing to the following
// domain root when the current one is exhausted.
func (it *SampleIter) Next() (Descriptor, bool) {
	for {
		if len(it.pending) > 0 {
			desc := it.pending[0]
			it.pending = it.pending[1:]
			return desc, true
		}
		if len(it.domains) == 0 {
			return Descriptor{}, false
		}

		domain := it.domains[0]
		it.domains = it.domains[1:]
		it.pending = listDomain(it.root, domain)
	}
}

func listDomain(root string, domain Domain) []Descriptor {
	dir := filepath.Join(root, filepath.FromSlash(domain.String()))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return []Descriptor{{
			Domain: domain,
			Dir:    dir,
			Err:    &PipelineError{Op: "discover.root", Kind: KindDiscovery, Path: dir, Err: err},
		}}
	}

	var found []Descriptor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		index, ok := parseSampleKey(entry.Name())
		if !ok {
			continue
		}
		desc := Descriptor{
			Key:    entry.Name(),
			Index:  index,
			Domain: domain,
			Dir:    filepath.Join(dir, entry.Name()),
		}
		desc.Err = checkSampleDir(desc)
		found = append(found, desc)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Index < found[j].Index })
	return found
}

// parseSampleKey accepts S#<index> folder names.
func parseSampleKey(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "S#")
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// checkSampleDir verifies a sample folder has its config and at least
// one image asset before the pipeline spends any work on it.
func checkSampleDir(desc Descriptor) error {
	const op = "discover.sample"

	configPath := filepath.Join(desc.Dir, "config.json")
	if _, err := os.Stat(configPath); err != nil {
		return &PipelineError{Op: op, Kind: KindDiscovery, Sample: desc.Key, Path: configPath,
			Err: fmt.Errorf("sample lacks config.json: %w", err)}
	}

	files, err := ListImageFiles(desc.Dir)
	if err != nil {
		return &PipelineError{Op: op, Kind: KindDiscovery, Sample: desc.Key, Path: desc.Dir, Err: err}
	}
	if len(files) == 0 {
		return &PipelineError{Op: op, Kind: KindDiscovery, Sample: desc.Key, Path: desc.Dir,
			Err: fmt.Errorf("sample has no image assets")}
	}
	return nil
}

// ConfigPath returns the sample's config.json location.
func (d Descriptor) ConfigPath() string {
	return filepath.Join(d.Dir, "config.json")
}
