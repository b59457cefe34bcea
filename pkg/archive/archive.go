package archive

import (
	"encoding/json"
	"sort"

	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// Archive is an in-memory hall of fame: a capacity-bounded, direction-
// aware record of the best organisms seen during a run. Entries are
// clones, so later generations can never mutate what the archive holds.
// It lives and dies with the run; nothing is persisted.
type Archive struct {
	direction organism.Direction
	capacity  int
	entries   []Entry
}

// Entry pairs an archived organism with the fitness and generation it
// was recorded at.
type Entry struct {
	Organism   organism.Organism
	Fitness    float64
	Generation int
}

// New creates an archive keeping the best capacity organisms.
func New(direction organism.Direction, capacity int) (*Archive, error) {
	if capacity < 1 {
		return nil, organism.Configf("archive capacity %d must be positive", capacity)
	}
	return &Archive{
		direction: direction,
		capacity:  capacity,
		entries:   make([]Entry, 0, capacity),
	}, nil
}

// Len returns the number of archived organisms.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Add records an organism if it ranks among the best seen so far.
// Returns true when the organism entered the archive.
func (a *Archive) Add(o organism.Organism, fitness float64, generation int) bool {
	if len(a.entries) == a.capacity &&
		!a.direction.Better(fitness, a.entries[len(a.entries)-1].Fitness) {
		return false
	}

	entry := Entry{Organism: o.Clone(), Fitness: fitness, Generation: generation}
	pos := sort.Search(len(a.entries), func(i int) bool {
		return a.direction.Better(fitness, a.entries[i].Fitness)
	})
	a.entries = append(a.entries, Entry{})
	copy(a.entries[pos+1:], a.entries[pos:])
	a.entries[pos] = entry

	if len(a.entries) > a.capacity {
		a.entries = a.entries[:a.capacity]
	}
	return true
}

// Best returns the best archived entry, or false when the archive is
// empty.
func (a *Archive) Best() (Entry, bool) {
	if len(a.entries) == 0 {
		return Entry{}, false
	}
	return a.entries[0], true
}

// Entries returns a snapshot of the archive, best first.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// MarshalJSON renders the archive as a reporting document, best first.
func (a *Archive) MarshalJSON() ([]byte, error) {
	type entryReport struct {
		Fitness    float64     `json:"fitness"`
		Generation int         `json:"generation"`
		Organism   interface{} `json:"organism"`
	}
	reports := make([]entryReport, len(a.entries))
	for i, e := range a.entries {
		reports[i] = entryReport{
			Fitness:    e.Fitness,
			Generation: e.Generation,
			Organism:   e.Organism,
		}
	}
	return json.Marshal(reports)
}
