package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInvalidPlan is wrapped by every Validate failure
var ErrInvalidPlan = errors.New("invalid phase plan")

// Plan is the requirement graph of a phase list.
// Edges point from a required phase to the phase that requires it.
type Plan struct {
	graph *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
}

// NewPlan builds the requirement graph; it does not check ordering
func NewPlan(phases []Phase) (*Plan, error) {
	p := &Plan{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}

	for i, ph := range phases {
		if ph.Name == "" {
			return nil, fmt.Errorf("%w: phase %d has no name", ErrInvalidPlan, i)
		}
		if _, dup := p.ids[ph.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate phase %q", ErrInvalidPlan, ph.Name)
		}
		id := int64(i)
		p.ids[ph.Name] = id
		p.names[id] = ph.Name
		p.graph.AddNode(simple.Node(id))
	}

	for _, ph := range phases {
		to := p.ids[ph.Name]
		for _, req := range ph.Requires {
			from, ok := p.ids[req]
			if !ok {
				return nil, fmt.Errorf("%w: phase %q requires unknown phase %q", ErrInvalidPlan, ph.Name, req)
			}
			if from == to {
				return nil, fmt.Errorf("%w: phase %q requires itself", ErrInvalidPlan, ph.Name)
			}
			if !p.graph.HasEdgeFromTo(from, to) {
				p.graph.SetEdge(p.graph.NewEdge(p.graph.Node(from), p.graph.Node(to)))
			}
		}
	}

	return p, nil
}

// Order returns a dependency-respecting order of phase names, or an error naming
// the phases involved in a requirement cycle
func (p *Plan) Order() ([]string, error) {
	sorted, err := topo.Sort(p.graph)
	if err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			var cycles []string
			for _, component := range unorderable {
				names := make([]string, 0, len(component))
				for _, n := range component {
					names = append(names, p.names[n.ID()])
				}
				cycles = append(cycles, strings.Join(names, " -> "))
			}
			return nil, fmt.Errorf("%w: requirement cycle among %s", ErrInvalidPlan, strings.Join(cycles, "; "))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	order := make([]string, 0, len(sorted))
	for _, n := range sorted {
		order = append(order, p.names[n.ID()])
	}
	return order, nil
}

// Requires returns the phases the named phase directly requires
func (p *Plan) Requires(name string) []string {
	id, ok := p.ids[name]
	if !ok {
		return nil
	}
	var reqs []string
	iter := p.graph.To(id)
	for iter.Next() {
		reqs = append(reqs, p.names[iter.Node().ID()])
	}
	return reqs
}

// Validate checks that the phase list can run as declared: names are unique,
// every requirement exists, there are no cycles, and each requirement is
// declared before the phase needing it
func Validate(phases []Phase) error {
	p, err := NewPlan(phases)
	if err != nil {
		return err
	}
	if _, err := p.Order(); err != nil {
		return err
	}

	for _, ph := range phases {
		for _, req := range ph.Requires {
			if p.ids[req] > p.ids[ph.Name] {
				return fmt.Errorf("%w: phase %q is declared before its requirement %q", ErrInvalidPlan, ph.Name, req)
			}
		}
	}
	return nil
}
