package program

import (
	"math/rand"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// OpSpec declares one operator of a grammar: a name, a fixed arity and
// an evaluation rule. The rule may fail with an error for inputs outside
// its domain; such failures are local to the organism being evaluated.
type OpSpec struct {
	Name  string
	Arity int
	Eval  func(args []float64) (float64, error)
}

// GrammarConfig declares the node types a program species may build
// trees from.
type GrammarConfig struct {
	Operators []OpSpec

	// Variables are the input names terminals may reference.
	Variables []string

	// Constants is the pool terminals may hold.
	Constants []float64

	// MaxDepth bounds tree depth to keep bloat in check. Zero picks the
	// default.
	MaxDepth int

	// CrossoverAttempts is how many subtree swaps are tried before
	// crossover falls back to unmodified clones. Zero picks the default.
	CrossoverAttempts int
}

// Grammar is the validated, immutable node-type catalogue shared by all
// organisms of one program species.
type Grammar struct {
	ops       []OpSpec
	opIndex   map[string]int
	variables []string
	constants []float64
	maxDepth  int
	attempts  int
}

// NewGrammar validates the configuration and builds a grammar. Missing
// terminals, duplicate or malformed operators and non-positive depths
// are configuration errors.
func NewGrammar(cfg GrammarConfig) (*Grammar, error) {
	if len(cfg.Variables) == 0 && len(cfg.Constants) == 0 {
		return nil, organism.Configf("grammar has no terminals")
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = constants.DefaultMaxDepth
	}
	if cfg.MaxDepth < 1 {
		return nil, organism.Configf("grammar max depth %d must be positive", cfg.MaxDepth)
	}
	if cfg.CrossoverAttempts == 0 {
		cfg.CrossoverAttempts = constants.DefaultCrossoverAttempts
	}
	if cfg.CrossoverAttempts < 1 {
		return nil, organism.Configf("grammar crossover attempts %d must be positive", cfg.CrossoverAttempts)
	}

	g := &Grammar{
		ops:       make([]OpSpec, len(cfg.Operators)),
		opIndex:   make(map[string]int, len(cfg.Operators)),
		variables: append([]string(nil), cfg.Variables...),
		constants: append([]float64(nil), cfg.Constants...),
		maxDepth:  cfg.MaxDepth,
		attempts:  cfg.CrossoverAttempts,
	}
	copy(g.ops, cfg.Operators)

	for i := range g.ops {
		op := &g.ops[i]
		if op.Name == "" {
			return nil, organism.Configf("operator %d has no name", i)
		}
		if op.Arity < 1 {
			return nil, organism.Configf("operator %q: arity %d must be positive", op.Name, op.Arity)
		}
		if op.Eval == nil {
			return nil, organism.Configf("operator %q has no evaluation rule", op.Name)
		}
		if _, dup := g.opIndex[op.Name]; dup {
			return nil, organism.Configf("duplicate operator name %q", op.Name)
		}
		g.opIndex[op.Name] = i
	}

	return g, nil
}

// MaxDepth returns the configured depth bound.
func (g *Grammar) MaxDepth() int {
	return g.maxDepth
}

// Op looks an operator up by name.
func (g *Grammar) Op(name string) (*OpSpec, bool) {
	i, ok := g.opIndex[name]
	if !ok {
		return nil, false
	}
	return &g.ops[i], true
}

// Generate builds a random grammar-conformant tree of depth at most
// MaxDepth.
func (g *Grammar) Generate(rng *rand.Rand) *Node {
	return g.generate(rng, g.maxDepth, true)
}

// generate builds a random subtree within the remaining depth budget.
// The root position prefers an operator; below it each level flips a
// coin, so trees vary in shape rather than always filling the budget.
func (g *Grammar) generate(rng *rand.Rand, budget int, root bool) *Node {
	if len(g.ops) == 0 || budget <= 1 || (!root && rng.Intn(2) == 0) {
		return g.terminal(rng)
	}

	op := &g.ops[rng.Intn(len(g.ops))]
	children := make([]*Node, op.Arity)
	for i := range children {
		children[i] = g.generate(rng, budget-1, false)
	}
	return &Node{Kind: NodeOp, Name: op.Name, Op: op, Children: children}
}

// terminal builds a random leaf: a variable or a constant, 50/50 when
// both exist.
func (g *Grammar) terminal(rng *rand.Rand) *Node {
	useVar := len(g.variables) > 0
	if useVar && len(g.constants) > 0 {
		useVar = rng.Intn(2) == 0
	}
	if useVar {
		return Var(g.variables[rng.Intn(len(g.variables))])
	}
	return Const(g.constants[rng.Intn(len(g.constants))])
}

// bind checks that a tree only uses node types this grammar declares
// and respects the depth bound, resolving every operator node to the
// grammar's OpSpec along the way.
func (g *Grammar) bind(n *Node) error {
	if n.Depth() > g.maxDepth {
		return organism.Configf("tree depth %d exceeds grammar maximum %d", n.Depth(), g.maxDepth)
	}
	return g.bindNode(n)
}

func (g *Grammar) bindNode(n *Node) error {
	if n.Kind == NodeOp {
		op, ok := g.Op(n.Name)
		if !ok {
			return organism.Configf("unknown operator %q", n.Name)
		}
		if len(n.Children) != op.Arity {
			return organism.Configf("operator %q: arity %d, got %d children",
				n.Name, op.Arity, len(n.Children))
		}
		n.Op = op
		for _, child := range n.Children {
			if err := g.bindNode(child); err != nil {
				return err
			}
		}
	}
	return nil
}
