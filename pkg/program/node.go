package program

import (
	"strconv"
	"strings"

	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// NodeKind tags the three node variants of an expression tree.
type NodeKind int

const (
	// NodeConst holds a constant value.
	NodeConst NodeKind = iota
	// NodeVar references an input variable by name.
	NodeVar
	// NodeOp applies an operator to its children.
	NodeOp
)

// Node is one vertex of an expression tree: a tagged union over
// constants, variable references and operator applications. Each tree
// owns its nodes exclusively; crossover and mutation splice copies, so
// no node is ever shared between two organisms.
type Node struct {
	Kind NodeKind

	// Value is set for NodeConst.
	Value float64

	// Name is the variable name for NodeVar and the operator name for
	// NodeOp.
	Name string

	// Op is set for NodeOp; len(Children) always equals Op.Arity.
	Op       *OpSpec
	Children []*Node
}

// Const builds a constant leaf.
func Const(v float64) *Node {
	return &Node{Kind: NodeConst, Value: v}
}

// Var builds a variable-reference leaf.
func Var(name string) *Node {
	return &Node{Kind: NodeVar, Name: name}
}

// Call builds an operator application. The operator is resolved against
// a grammar when the tree is handed to a species.
func Call(name string, children ...*Node) *Node {
	return &Node{Kind: NodeOp, Name: name, Children: children}
}

// Eval evaluates the tree against the given input bindings. Variables
// missing from the bindings read as zero. Operator domain failures
// surface as EvalError values; the tree itself has no side effects.
func (n *Node) Eval(bindings map[string]float64) (float64, error) {
	switch n.Kind {
	case NodeConst:
		return n.Value, nil
	case NodeVar:
		return bindings[n.Name], nil
	default:
		args := make([]float64, len(n.Children))
		for i, child := range n.Children {
			v, err := child.Eval(bindings)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		v, err := n.Op.Eval(args)
		if err != nil {
			if organism.IsEval(err) {
				return 0, err
			}
			return 0, organism.Evalf(n.Name, "%v", err)
		}
		return v, nil
	}
}

// Clone deep-copies the tree.
func (n *Node) Clone() *Node {
	clone := &Node{
		Kind:  n.Kind,
		Value: n.Value,
		Name:  n.Name,
		Op:    n.Op,
	}
	if len(n.Children) > 0 {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 1
	for _, child := range n.Children {
		count += child.Count()
	}
	return count
}

// Depth returns the depth of the tree; a single leaf has depth 1.
func (n *Node) Depth() int {
	max := 0
	for _, child := range n.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// String renders the tree as an s-expression, e.g. "(add 1 x)".
func (n *Node) String() string {
	switch n.Kind {
	case NodeConst:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case NodeVar:
		return n.Name
	default:
		var b strings.Builder
		b.WriteByte('(')
		b.WriteString(n.Name)
		for _, child := range n.Children {
			b.WriteByte(' ')
			b.WriteString(child.String())
		}
		b.WriteByte(')')
		return b.String()
	}
}

// nodeRef locates one node within a tree for splicing: the node itself,
// its parent (nil for the root), its child slot and its 1-based depth.
type nodeRef struct {
	node   *Node
	parent *Node
	idx    int
	depth  int
}

// refs lists every node in preorder, giving each genetic operator a
// uniform way to pick a random position.
func (n *Node) refs() []nodeRef {
	out := make([]nodeRef, 0, n.Count())
	var walk func(cur, parent *Node, idx, depth int)
	walk = func(cur, parent *Node, idx, depth int) {
		out = append(out, nodeRef{node: cur, parent: parent, idx: idx, depth: depth})
		for i, child := range cur.Children {
			walk(child, cur, i, depth+1)
		}
	}
	walk(n, nil, 0, 1)
	return out
}

// splice replaces the referenced position with repl, returning the new
// root (which is repl itself when the reference is the root).
func splice(root *Node, ref nodeRef, repl *Node) *Node {
	if ref.parent == nil {
		return repl
	}
	ref.parent.Children[ref.idx] = repl
	return root
}
