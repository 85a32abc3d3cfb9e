package reaction

import (
	"fmt"
	"sort"

	"github.com/zurustar/paperrpg/pkg/formula"
	"github.com/zurustar/paperrpg/pkg/value"
	"gopkg.in/yaml.v3"
)

// Node is one command of a reaction with its nesting depth.
type Node struct {
	Depth   int
	Command *Command
}

// Parameter is a declared parameter of a common reaction.
type Parameter struct {
	ID      int         `yaml:"id"`
	Name    string      `yaml:"name"`
	Default value.Value `yaml:"default"`
}

// Reaction is an ordered, nested list of commands. Depth transitions encode
// block scope: the children of a block command are the following nodes one
// level deeper, up to the next node at its depth or above.
//
// A Reaction is immutable once built and can be interpreted by any number of
// interpreters at the same time.
type Reaction struct {
	ID           int
	Name         string
	BlockingHero bool
	Parameters   map[int]Parameter

	nodes   []Node
	ends    []int
	parents []int
}

// NewReaction validates the nesting of nodes and precomputes block extents.
func NewReaction(id int, nodes []Node) (*Reaction, error) {
	r := &Reaction{ID: id, nodes: nodes}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reaction) malformed(index int, format string, args ...any) error {
	return NewRuntimeError(ErrorMalformedTree, format, args...).At(r.ID, index)
}

func (r *Reaction) build() error {
	n := len(r.nodes)
	r.ends = make([]int, n)
	r.parents = make([]int, n)

	var open []int // indices of the enclosing nodes, innermost last
	for i, node := range r.nodes {
		if node.Command == nil {
			return r.malformed(i, "missing command")
		}
		if node.Depth < 0 {
			return r.malformed(i, "negative depth %d", node.Depth)
		}
		for len(open) > 0 && r.nodes[open[len(open)-1]].Depth >= node.Depth {
			r.ends[open[len(open)-1]] = i
			open = open[:len(open)-1]
		}
		if len(open) != node.Depth {
			return r.malformed(i, "depth %d does not follow depth %d", node.Depth, len(open)-1)
		}
		parent := -1
		if len(open) > 0 {
			parent = open[len(open)-1]
			if !r.nodes[parent].Command.Kind.IsBlock() {
				return r.malformed(i, "%s cannot have children", r.nodes[parent].Command.Kind)
			}
		}
		r.parents[i] = parent
		if err := r.checkPlacement(i, parent); err != nil {
			return err
		}
		open = append(open, i)
	}
	for _, i := range open {
		r.ends[i] = n
	}
	return nil
}

func (r *Reaction) checkPlacement(i, parent int) error {
	kind := r.nodes[i].Command.Kind
	var parentKind Kind
	if parent >= 0 {
		parentKind = r.nodes[parent].Command.Kind
	}
	switch kind {
	case Choice:
		if parentKind != DisplayChoice {
			return r.malformed(i, "Choice outside of DisplayChoice")
		}
	case IfWin, IfLose:
		if parentKind != StartBattle {
			return r.malformed(i, "%s outside of StartBattle", kind)
		}
	case Else:
		prev := r.previousSibling(i)
		if prev < 0 || r.nodes[prev].Command.Kind != If {
			return r.malformed(i, "Else without If")
		}
	}
	switch parentKind {
	case DisplayChoice:
		if kind != Choice {
			return r.malformed(i, "%s inside DisplayChoice", kind)
		}
	case StartBattle:
		if kind != IfWin && kind != IfLose {
			return r.malformed(i, "%s inside StartBattle", kind)
		}
	}
	return nil
}

func (r *Reaction) previousSibling(i int) int {
	depth := r.nodes[i].Depth
	for j := i - 1; j >= 0; j-- {
		if r.nodes[j].Depth == depth {
			return j
		}
		if r.nodes[j].Depth < depth {
			return -1
		}
	}
	return -1
}

// Len returns the number of commands.
func (r *Reaction) Len() int { return len(r.nodes) }

// Node returns the node at index i.
func (r *Reaction) Node(i int) Node { return r.nodes[i] }

// End returns the index just past the last descendant of node i.
func (r *Reaction) End(i int) int { return r.ends[i] }

// Parent returns the index of the block enclosing node i, or -1.
func (r *Reaction) Parent(i int) int { return r.parents[i] }

// Children returns the indices of the direct children of node i.
func (r *Reaction) Children(i int) []int {
	var out []int
	for j := i + 1; j < r.ends[i]; j = r.ends[j] {
		out = append(out, j)
	}
	return out
}

// ElseOf returns the index of the Else sibling following the If at i, or -1.
func (r *Reaction) ElseOf(i int) int {
	j := r.ends[i]
	if j < len(r.nodes) && r.nodes[j].Depth == r.nodes[i].Depth && r.nodes[j].Command.Kind == Else {
		return j
	}
	return -1
}

// ParameterIDs returns the declared parameter ids in ascending order.
func (r *Reaction) ParameterIDs() []int {
	ids := make([]int, 0, len(r.Parameters))
	for id := range r.Parameters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DecodeNode decodes a flat [depth, kind, operands...] list.
func DecodeNode(list []any) (Node, error) {
	if len(list) < 2 {
		return Node{}, fmt.Errorf("command needs a depth and a kind, got %v", list)
	}
	cmd, err := DecodeCommand(list[1:])
	if err != nil {
		return Node{}, err
	}
	return Node{Depth: int(formula.ToFloat64(list[0])), Command: cmd}, nil
}

type rawReaction struct {
	ID           int               `yaml:"id"`
	Name         string            `yaml:"name"`
	BlockingHero bool              `yaml:"blockingHero"`
	Parameters   map[int]Parameter `yaml:"parameters"`
	Commands     [][]any           `yaml:"commands"`
}

// UnmarshalYAML decodes and validates a reaction from content data.
func (r *Reaction) UnmarshalYAML(node *yaml.Node) error {
	var raw rawReaction
	if err := node.Decode(&raw); err != nil {
		return err
	}
	nodes := make([]Node, 0, len(raw.Commands))
	for i, list := range raw.Commands {
		n, err := DecodeNode(list)
		if err != nil {
			return fmt.Errorf("reaction %d command %d: %w", raw.ID, i, err)
		}
		nodes = append(nodes, n)
	}
	built, err := NewReaction(raw.ID, nodes)
	if err != nil {
		return err
	}
	for id, p := range raw.Parameters {
		p.ID = id
		raw.Parameters[id] = p
	}
	built.Name = raw.Name
	built.BlockingHero = raw.BlockingHero
	built.Parameters = raw.Parameters
	*r = *built
	return nil
}
