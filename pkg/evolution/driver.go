package evolution

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/archive"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
	"github.com/evolvekit/evolvekit-go/pkg/population"
)

// Config holds the settings of a generational run.
type Config struct {
	// MaxGenerations caps the run. Zero picks the default.
	MaxGenerations int

	// TargetFitness, when set, terminates the run as soon as the best
	// fitness is better than or within Epsilon of it, per the species'
	// direction.
	TargetFitness *float64

	// Epsilon is the target tolerance. Zero picks the default.
	Epsilon float64

	// StopWhen is an optional external predicate polled once per
	// generation; returning true stops the run between generations.
	// There is no mid-generation cancellation.
	StopWhen func(generation int, best float64) bool

	// Verbose lowers the logger threshold to debug, exposing the
	// per-generation progress logs.
	Verbose bool

	// Archive, when set, records each generation's best organism.
	Archive *archive.Archive
}

// Result reports the outcome of a run.
type Result struct {
	// Best is the best organism of the final generation.
	Best        organism.Organism
	BestFitness float64
	MeanFitness float64

	// Generations is the generation count at termination.
	Generations int

	// Converged is true when the target fitness was met. A run that
	// exhausts MaxGenerations without meeting it simply reports false;
	// a convergence stall is not an error.
	Converged bool

	Duration time.Duration

	// History records the best fitness of each generation, for
	// reporting.
	History []float64
}

// Evolver is what the driver advances: a single population or an
// archipelago of them. Both types in pkg/population satisfy it.
type Evolver interface {
	NextGeneration() error
	Best() (organism.Organism, float64)
	Generation() int
	Species() organism.Species
	MeanFitness() float64
	SetLogger(logger *logrus.Logger)
}

var (
	_ Evolver = (*population.Population)(nil)
	_ Evolver = (*population.Archipelago)(nil)
)

// Driver owns the generational loop: evaluate, advance, poll for
// termination. It is cooperative by generation; callers wanting an
// early stop supply StopWhen or cancel the context, both of which are
// checked between generations only.
type Driver struct {
	pop    Evolver
	config Config
	logger *logrus.Logger
}

// New creates a driver for the given population or archipelago.
func New(pop Evolver, config Config) (*Driver, error) {
	if pop == nil {
		return nil, organism.Configf("driver has no population")
	}
	if config.MaxGenerations < 0 {
		return nil, organism.Configf("max generations %d must be non-negative", config.MaxGenerations)
	}
	if config.MaxGenerations == 0 {
		config.MaxGenerations = constants.DefaultMaxGenerations
	}
	if config.Epsilon < 0 {
		return nil, organism.Configf("epsilon %g must be non-negative", config.Epsilon)
	}
	if config.Epsilon == 0 {
		config.Epsilon = constants.DefaultEpsilon
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	d := &Driver{
		pop:    pop,
		config: config,
		logger: logger,
	}
	d.SetLogger(logger)
	return d, nil
}

// SetLogger replaces the driver's logger and hands it down to the
// population. A verbose configuration raises the logger to debug level.
func (d *Driver) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		if d.config.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
		d.logger = logger
		d.pop.SetLogger(logger)
	}
}

// Run executes the generational loop until the target fitness is met,
// the generation cap is reached, the external predicate fires or the
// context is cancelled. Only context cancellation and a failed
// generational step return an error; reaching MaxGenerations without
// convergence is a normal result.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	dir := d.pop.Species().Direction()

	result := &Result{
		History: make([]float64, 0, d.config.MaxGenerations+1),
	}

	globalBest := dir.Worst()
	for {
		best, score := d.pop.Best()
		result.Best = best
		result.BestFitness = score
		result.History = append(result.History, score)

		if d.config.Archive != nil && !math.IsInf(score, 0) {
			d.config.Archive.Add(best, score, d.pop.Generation())
		}

		if dir.Better(score, globalBest) {
			globalBest = score
			d.logger.WithFields(logrus.Fields{
				"generation": d.pop.Generation(),
				"fitness":    score,
				"organism":   shortID(best.ID()),
			}).Info("New best organism")
		}

		if d.targetMet(dir, score) {
			result.Converged = true
			break
		}
		if d.pop.Generation() >= d.config.MaxGenerations {
			break
		}
		if err := ctx.Err(); err != nil {
			d.finish(result, start)
			return result, fmt.Errorf("run cancelled: %w", err)
		}
		if d.config.StopWhen != nil && d.config.StopWhen(d.pop.Generation(), score) {
			break
		}

		if err := d.pop.NextGeneration(); err != nil {
			return nil, fmt.Errorf("generation %d failed: %w", d.pop.Generation(), err)
		}
	}

	d.finish(result, start)
	d.logger.WithFields(logrus.Fields{
		"generations": result.Generations,
		"fitness":     result.BestFitness,
		"converged":   result.Converged,
		"duration":    result.Duration,
	}).Info("Run finished")

	return result, nil
}

func (d *Driver) finish(result *Result, start time.Time) {
	result.Generations = d.pop.Generation()
	result.MeanFitness = d.pop.MeanFitness()
	result.Duration = time.Since(start)
}

// targetMet reports whether the best score satisfies the termination
// predicate: better than the target, or within epsilon of it.
func (d *Driver) targetMet(dir organism.Direction, score float64) bool {
	if d.config.TargetFitness == nil {
		return false
	}
	target := *d.config.TargetFitness
	if dir.Better(score, target) {
		return true
	}
	return math.Abs(score-target) <= d.config.Epsilon
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
