package population

import (
	"math"
	"math/rand"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// Scored pairs an organism with its evaluated fitness and its insertion
// position, the stable tie-break key for ranking.
type Scored struct {
	Organism organism.Organism
	Fitness  float64
	Position int
}

// Selector picks one parent from a ranked slice. The slice is always
// sorted best-first per the species' direction, with ties broken by
// insertion order.
type Selector interface {
	Name() string
	Pick(rng *rand.Rand, ranked []Scored, dir organism.Direction) (int, error)
}

// NewSelector returns the named selection policy. Roulette is the
// default.
func NewSelector(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", constants.SelectionRoulette:
		return &RouletteSelector{}, nil
	case constants.SelectionRank:
		return &RankSelector{}, nil
	case constants.SelectionTournament:
		if tournamentSize == 0 {
			tournamentSize = constants.DefaultTournamentSize
		}
		if tournamentSize < 1 {
			return nil, organism.Configf("tournament size %d must be positive", tournamentSize)
		}
		return &TournamentSelector{Size: tournamentSize}, nil
	default:
		return nil, organism.Configf("unknown selection policy %q", name)
	}
}

// RouletteSelector implements fitness-proportional ("roulette wheel")
// sampling. The wheel only makes sense for non-negative scores under a
// higher-is-better convention; for minimizing species, negative scores
// or an all-zero wheel it degrades to rank-based sampling, which keeps
// the distribution sensible instead of failing.
type RouletteSelector struct{}

func (*RouletteSelector) Name() string {
	return constants.SelectionRoulette
}

func (*RouletteSelector) Pick(rng *rand.Rand, ranked []Scored, dir organism.Direction) (int, error) {
	if len(ranked) == 0 {
		return 0, organism.Configf("cannot select from an empty population")
	}

	if dir != organism.Maximize {
		return rankPick(rng, len(ranked)), nil
	}

	total := 0.0
	for _, s := range ranked {
		if s.Fitness < 0 || math.IsNaN(s.Fitness) || math.IsInf(s.Fitness, 0) {
			return rankPick(rng, len(ranked)), nil
		}
		total += s.Fitness
	}
	if total <= 0 {
		return rankPick(rng, len(ranked)), nil
	}

	spin := rng.Float64() * total
	for i, s := range ranked {
		spin -= s.Fitness
		if spin <= 0 {
			return i, nil
		}
	}
	return len(ranked) - 1, nil
}

// RankSelector samples by linear rank weight: the best member gets
// weight n, the worst weight 1, independent of the raw scores. Useful
// when fitness values can be negative or ties are pervasive.
type RankSelector struct{}

func (*RankSelector) Name() string {
	return constants.SelectionRank
}

func (*RankSelector) Pick(rng *rand.Rand, ranked []Scored, _ organism.Direction) (int, error) {
	if len(ranked) == 0 {
		return 0, organism.Configf("cannot select from an empty population")
	}
	return rankPick(rng, len(ranked)), nil
}

// rankPick draws an index with linear rank weights over n ranked
// members: index 0 (the best) has weight n, index n-1 has weight 1.
func rankPick(rng *rand.Rand, n int) int {
	total := n * (n + 1) / 2
	spin := rng.Intn(total)
	for i := 0; i < n; i++ {
		spin -= n - i
		if spin < 0 {
			return i
		}
	}
	return n - 1
}

// TournamentSelector samples Size members uniformly and returns the
// best of them.
type TournamentSelector struct {
	Size int
}

func (*TournamentSelector) Name() string {
	return constants.SelectionTournament
}

func (s *TournamentSelector) Pick(rng *rand.Rand, ranked []Scored, _ organism.Direction) (int, error) {
	if len(ranked) == 0 {
		return 0, organism.Configf("cannot select from an empty population")
	}

	size := s.Size
	if size > len(ranked) {
		size = len(ranked)
	}

	// ranked is best-first, so the winner is the smallest sampled index
	best := rng.Intn(len(ranked))
	for i := 1; i < size; i++ {
		if idx := rng.Intn(len(ranked)); idx < best {
			best = idx
		}
	}
	return best, nil
}
