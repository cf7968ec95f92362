package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/mkrv/meowform/internal/affect"
	"github.com/mkrv/meowform/internal/taxonomy"
)

// ErrNotFound reports a missing catalog file.
var ErrNotFound = errors.New("sample catalog not found")

// SampleRecord is one catalogued vocalisation. Records are immutable after
// load; a reload produces a whole new snapshot.
type SampleRecord struct {
	ID             string                          `json:"id"`
	AudioReference string                          `json:"audio_reference"`
	Breed          string                          `json:"breed"`
	Context        string                          `json:"context"`
	Valence        float64                         `json:"valence"`
	Arousal        float64                         `json:"arousal"`
	Tags           map[taxonomy.Dimension][]string `json:"tags,omitempty"`
}

// Affect returns the record's annotated affect coordinates, clamped.
func (s SampleRecord) Affect() affect.Point {
	return affect.NewPoint(s.Valence, s.Arousal)
}

// Snapshot is an immutable view of the loaded catalog, safe for
// unsynchronized concurrent reads.
type Snapshot struct {
	Version string
	Samples []SampleRecord
}

// Match pairs a record with its affect-space distance to a query point.
type Match struct {
	Sample   SampleRecord
	Distance float64
}

// NearestQuery narrows and sizes a nearest-neighbour lookup.
type NearestQuery struct {
	Target        affect.Point
	BreedFilter   string
	ContextFilter string
	TopK          int
}

// Nearest returns up to TopK records ordered by ascending affect distance.
// Exact distance ties keep catalog order; no secondary tie-break is applied,
// unlike the tag matcher. Filtered-out or empty catalogs yield an empty
// slice, not an error.
func (s *Snapshot) Nearest(q NearestQuery) []Match {
	if s == nil || len(s.Samples) == 0 {
		return nil
	}
	topK := q.TopK
	if topK <= 0 {
		topK = 1
	}

	matches := make([]Match, 0, len(s.Samples))
	for _, rec := range s.Samples {
		if q.BreedFilter != "" && rec.Breed != q.BreedFilter {
			continue
		}
		if q.ContextFilter != "" && rec.Context != q.ContextFilter {
			continue
		}
		matches = append(matches, Match{
			Sample:   rec,
			Distance: affect.Distance(q.Target, rec.Affect()),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

type catalogFile struct {
	Version string         `json:"version"`
	Samples []SampleRecord `json:"samples"`
}

// Registry owns the active catalog snapshot. Reload builds a new snapshot
// and swaps the pointer atomically, so in-flight readers keep a consistent
// view instead of observing a half-mutated catalog.
type Registry struct {
	path   string
	active atomic.Pointer[Snapshot]
}

// Load parses the catalog at path and returns a registry holding it.
func Load(path string) (*Registry, error) {
	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path}
	r.active.Store(snap)
	return r, nil
}

// Snapshot returns the active immutable catalog view.
func (r *Registry) Snapshot() *Snapshot {
	return r.active.Load()
}

// Reload re-reads the catalog from disk and atomically swaps it in.
// On failure the previous snapshot stays active.
func (r *Registry) Reload() (*Snapshot, error) {
	snap, err := loadSnapshot(r.path)
	if err != nil {
		return nil, err
	}
	r.active.Store(snap)
	return snap, nil
}

func loadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Samples))
	for i, rec := range file.Samples {
		if rec.ID == "" {
			return nil, fmt.Errorf("catalog %s: sample %d has no id", path, i)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate sample id %q", path, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if rec.AudioReference == "" {
			return nil, fmt.Errorf("catalog %s: sample %q has no audio_reference", path, rec.ID)
		}
		if err := taxonomy.ValidateTags(rec.Tags); err != nil {
			return nil, fmt.Errorf("catalog %s: sample %q: %w", path, rec.ID, err)
		}
		// Clamp annotations once at load so matching never sees out-of-domain coordinates.
		p := rec.Affect()
		file.Samples[i].Valence = p.Valence
		file.Samples[i].Arousal = p.Arousal
	}

	return &Snapshot{Version: file.Version, Samples: file.Samples}, nil
}
