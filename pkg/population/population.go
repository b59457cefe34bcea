package population

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evolvekit/evolvekit-go/internal/types"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// Config holds the population-level policy settings.
type Config struct {
	// Size is the fixed population size, kept exact across generations.
	Size int

	// Elitism is the number of top members carried into the next
	// generation unchanged. Default 0.
	Elitism int

	// Immigrants is the number of fresh random organisms injected each
	// generation. Default 0.
	Immigrants int

	// Selection names the parent-selection policy: "roulette" (the
	// default), "rank" or "tournament".
	Selection string

	// TournamentSize applies to the tournament policy only.
	TournamentSize int

	// Seed seeds the population's private random source. Zero draws a
	// seed from the clock; set it explicitly for reproducible runs.
	Seed int64
}

func (c Config) validate() error {
	if c.Size < 2 {
		return organism.Configf("population size %d must be at least 2", c.Size)
	}
	if c.Elitism < 0 || c.Elitism >= c.Size {
		return organism.Configf("elitism %d must be in [0, size)", c.Elitism)
	}
	if c.Immigrants < 0 {
		return organism.Configf("immigrants %d must be non-negative", c.Immigrants)
	}
	if c.Elitism+c.Immigrants >= c.Size {
		return organism.Configf("elitism %d plus immigrants %d leaves no room for offspring",
			c.Elitism, c.Immigrants)
	}
	return nil
}

// Population is an insertion-ordered collection of organisms of one
// species together with the selection, mating and mutation policy that
// drives one generational step.
//
// A population is single-threaded by contract: NextGeneration must run
// to completion before any other call reads or mutates the same
// population. The only shared resource is the private random source,
// which every genetic decision draws from in a fixed call order, so a
// fixed seed reproduces a run exactly.
type Population struct {
	species  organism.Species
	config   Config
	selector Selector
	rng      *rand.Rand
	logger   *logrus.Logger

	members    []organism.Organism
	generation int
	stats      types.EvolutionStats
	bestSoFar  float64
}

// New creates a population filled with Size random organisms of the
// given species.
func New(species organism.Species, config Config) (*Population, error) {
	if species == nil {
		return nil, organism.Configf("population has no species")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	selector, err := NewSelector(config.Selection, config.TournamentSize)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	p := &Population{
		species:  species,
		config:   config,
		selector: selector,
		rng:      rng,
		logger:   logger,
		members:  make([]organism.Organism, 0, config.Size),
		stats: types.EvolutionStats{
			StartTime: time.Now(),
		},
		bestSoFar: species.Direction().Worst(),
	}
	for i := 0; i < config.Size; i++ {
		p.members = append(p.members, species.NewRandom(rng))
	}

	logger.WithFields(logrus.Fields{
		"size":      config.Size,
		"selection": selector.Name(),
		"direction": species.Direction().String(),
		"seed":      seed,
	}).Debug("Initialized population")

	return p, nil
}

// SetLogger replaces the population's logger.
func (p *Population) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Size returns the number of members, which equals the configured size
// after every generational step.
func (p *Population) Size() int {
	return len(p.members)
}

// Generation returns the generation counter, starting at 0.
func (p *Population) Generation() int {
	return p.generation
}

// Species returns the population's species descriptor.
func (p *Population) Species() organism.Species {
	return p.species
}

// Members returns a snapshot of the member slice in insertion order.
func (p *Population) Members() []organism.Organism {
	out := make([]organism.Organism, len(p.members))
	copy(out, p.members)
	return out
}

// EvaluateAll computes or refreshes the fitness of every member. A
// member whose evaluation fails is assigned the worst possible score
// and logged; it never aborts the step.
func (p *Population) EvaluateAll() {
	p.ranked()
}

// ranked evaluates every member and returns them sorted best-first,
// ties broken by insertion order. Evaluation failures map to the
// direction-aware worst score. Only actual fitness-function invocations
// count toward the evaluation statistics: members that already carry a
// cached result are read for free, and a failing member is logged once,
// not on every re-rank.
func (p *Population) ranked() []Scored {
	dir := p.species.Direction()
	worst := dir.Worst()

	out := make([]Scored, len(p.members))
	for i, member := range p.members {
		cached := false
		if c, ok := member.(interface{ Evaluated() bool }); ok {
			cached = c.Evaluated()
		}
		score, err := member.Fitness()
		if !cached {
			p.stats.Evaluations++
			if err != nil {
				p.stats.FailedEvals++
				p.logger.WithError(err).WithField("organism", shortID(member.ID())).
					Warn("Evaluation failed, assigning worst fitness")
			}
		}
		if err != nil || math.IsNaN(score) {
			score = worst
		}
		out[i] = Scored{Organism: member, Fitness: score, Position: i}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return dir.Better(out[i].Fitness, out[j].Fitness)
	})
	p.observe(out)
	return out
}

// observe refreshes the run-level statistics from a freshly ranked
// generation: current best and mean fitness, and the generation of the
// last improvement of the best.
func (p *Population) observe(ranked []Scored) {
	if len(ranked) == 0 {
		return
	}
	dir := p.species.Direction()

	best := ranked[0].Fitness
	p.stats.BestFitness = best
	if dir.Better(best, p.bestSoFar) {
		p.bestSoFar = best
		p.stats.LastImprovement = p.generation
	}

	total, count := 0.0, 0
	for _, s := range ranked {
		if !math.IsInf(s.Fitness, 0) {
			total += s.Fitness
			count++
		}
	}
	if count == 0 {
		p.stats.MeanFitness = dir.Worst()
	} else {
		p.stats.MeanFitness = total / float64(count)
	}
}

// Select returns k members chosen by the configured policy. Repeats are
// possible; breeding enforces distinct parents itself.
func (p *Population) Select(k int) ([]organism.Organism, error) {
	if k < 1 {
		return nil, organism.Configf("selection count %d must be positive", k)
	}

	ranked := p.ranked()
	out := make([]organism.Organism, 0, k)
	for i := 0; i < k; i++ {
		idx, err := p.selector.Pick(p.rng, ranked, p.species.Direction())
		if err != nil {
			return nil, fmt.Errorf("selection failed: %w", err)
		}
		out = append(out, ranked[idx].Organism)
	}
	return out, nil
}

// NextGeneration advances the population by one generation: evaluate
// all members, carry over the elite, inject immigrants, then breed
// selected parent pairs with crossover and mutation until the new
// generation reaches the configured size exactly. The old generation is
// discarded apart from retained elites.
func (p *Population) NextGeneration() error {
	ranked := p.ranked()
	dir := p.species.Direction()

	next := make([]organism.Organism, 0, p.config.Size)
	for i := 0; i < p.config.Elitism; i++ {
		next = append(next, ranked[i].Organism)
	}
	for i := 0; i < p.config.Immigrants; i++ {
		next = append(next, p.species.NewRandom(p.rng))
	}

	for len(next) < p.config.Size {
		first, err := p.selector.Pick(p.rng, ranked, dir)
		if err != nil {
			return fmt.Errorf("parent selection failed: %w", err)
		}
		second := first
		for tries := 0; second == first && tries < 10; tries++ {
			second, err = p.selector.Pick(p.rng, ranked, dir)
			if err != nil {
				return fmt.Errorf("parent selection failed: %w", err)
			}
		}
		if second == first {
			second = (first + 1) % len(ranked)
		}

		child1, child2, err := ranked[first].Organism.Mate(p.rng, ranked[second].Organism)
		if err != nil {
			return fmt.Errorf("mating failed: %w", err)
		}

		next = append(next, child1.Mutate(p.rng))
		if len(next) < p.config.Size {
			// odd slot counts drop the second child of the final pair
			next = append(next, child2.Mutate(p.rng))
		}
	}

	p.members = next
	p.generation++

	p.logger.WithFields(logrus.Fields{
		"generation": p.generation,
		"size":       len(p.members),
	}).Debug("Advanced generation")

	return nil
}

// replaceWorst swaps the worst-ranked members out for the given
// organisms, preserving everyone else's insertion position. Used by
// island migration.
func (p *Population) replaceWorst(newcomers []organism.Organism) {
	ranked := p.ranked()
	for i, o := range newcomers {
		pos := ranked[len(ranked)-1-i].Position
		p.members[pos] = o
	}
}

// Best returns the member with the extremal fitness per the species'
// direction, together with that fitness. Ties break toward the earliest
// insertion position; failed evaluations rank last.
func (p *Population) Best() (organism.Organism, float64) {
	ranked := p.ranked()
	return ranked[0].Organism, ranked[0].Fitness
}

// MeanFitness returns the average fitness over members with a finite
// score. With no finite scores it returns the worst possible value.
func (p *Population) MeanFitness() float64 {
	p.ranked()
	return p.stats.MeanFitness
}

// Stats returns evaluation statistics accumulated so far.
func (p *Population) Stats() types.EvolutionStats {
	stats := p.stats
	stats.Generations = p.generation
	stats.Duration = time.Since(p.stats.StartTime)
	return stats
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
