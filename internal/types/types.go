package types

import (
	"time"
)

// Config is the top-level configuration for an evolution run
type Config struct {
	Species    SpeciesConfig    `yaml:"species" json:"species"`
	Genes      []GeneConfig     `yaml:"genes" json:"genes"`
	Population PopulationConfig `yaml:"population" json:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution" json:"evolution"`
}

// SpeciesConfig holds species-wide settings shared by all organisms
type SpeciesConfig struct {
	Maximize     bool    `yaml:"maximize" json:"maximize"`
	MutationRate float64 `yaml:"mutation_rate" json:"mutation_rate"`
	MutateOne    bool    `yaml:"mutate_one" json:"mutate_one"`

	// Mating is the recombination mode: "genes" exchanges gene by gene,
	// "split" exchanges genome stretches between random cut points.
	Mating        string `yaml:"mating" json:"mating"`
	Intersections int    `yaml:"intersections" json:"intersections"`
}

// GeneConfig describes one gene of a genome species
type GeneConfig struct {
	Name      string   `yaml:"name" json:"name"`
	Type      string   `yaml:"type" json:"type"`
	Min       float64  `yaml:"min" json:"min"`
	Max       float64  `yaml:"max" json:"max"`
	Value     *float64 `yaml:"value" json:"value,omitempty"`
	MutProb   float64  `yaml:"mut_prob" json:"mut_prob"`
	MutAmount float64  `yaml:"mut_amount" json:"mut_amount"`
	Alleles   []string `yaml:"alleles" json:"alleles,omitempty"`
}

// PopulationConfig holds population-level settings
type PopulationConfig struct {
	Size           int    `yaml:"size" json:"size"`
	Elitism        int    `yaml:"elitism" json:"elitism"`
	Immigrants     int    `yaml:"immigrants" json:"immigrants"`
	Selection      string `yaml:"selection" json:"selection"`
	TournamentSize int    `yaml:"tournament_size" json:"tournament_size"`
	Seed           int64  `yaml:"seed" json:"seed"`

	// Island-model settings; one island is a plain population.
	Islands           int `yaml:"islands" json:"islands"`
	MigrationInterval int `yaml:"migration_interval" json:"migration_interval"`
	Migrants          int `yaml:"migrants" json:"migrants"`
}

// EvolutionConfig holds settings for the generational driver
type EvolutionConfig struct {
	MaxGenerations int      `yaml:"max_generations" json:"max_generations"`
	TargetFitness  *float64 `yaml:"target_fitness" json:"target_fitness,omitempty"`
	Epsilon        float64  `yaml:"epsilon" json:"epsilon"`
	Verbose        bool     `yaml:"verbose" json:"verbose"`
}

// EvolutionStats tracks statistics about an evolution run
type EvolutionStats struct {
	Evaluations     int64         `json:"evaluations"`
	FailedEvals     int64         `json:"failed_evals"`
	BestFitness     float64       `json:"best_fitness"`
	MeanFitness     float64       `json:"mean_fitness"`
	Generations     int           `json:"generations"`
	Duration        time.Duration `json:"duration"`
	StartTime       time.Time     `json:"start_time"`
	LastImprovement int           `json:"last_improvement"`
}
