package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/objsql/internal/model"
)

// ReferenceCycle is a group of tables whose foreign keys reference each
// other. Creating them in any order leaves at least one forward reference.
type ReferenceCycle struct {
	Tables []string `json:"tables"`
}

func (c ReferenceCycle) String() string {
	return fmt.Sprintf("foreign keys form a cycle: %s", strings.Join(append(slices.Clone(c.Tables), c.Tables[0]), " -> "))
}

// CreationOrder returns the types of m ordered so that every referenced
// table precedes the tables referencing it.
//
// The order is computed from the strongly connected components of the
// reference graph (Tarjan's algorithm emits a component only after every
// component it references). Self references never form a cycle; larger
// components are reported and keep registration order internally.
func CreationOrder(m model.Model) ([]*model.TypeDescriptor, []ReferenceCycle) {
	types := m.Types()
	position := make(map[*model.TypeDescriptor]int, len(types))
	for i, td := range types {
		position[td] = i
	}

	var (
		order  []*model.TypeDescriptor
		cycles []ReferenceCycle
	)
	for _, scc := range tarjanSCC(types, position) {
		if len(scc) > 1 {
			names := make([]string, len(scc))
			for i, td := range scc {
				names[i] = td.TableName
			}
			cycles = append(cycles, ReferenceCycle{Tables: names})
		}
		order = append(order, scc...)
	}
	return order, cycles
}

// references lists the registered types td holds foreign keys to, in
// declaration order, excluding td itself.
func references(td *model.TypeDescriptor, position map[*model.TypeDescriptor]int) []*model.TypeDescriptor {
	var out []*model.TypeDescriptor
	for _, fk := range model.ForeignKeys(td) {
		if fk.ForeignType == td {
			continue
		}
		if _, ok := position[fk.ForeignType]; ok {
			out = append(out, fk.ForeignType)
		}
	}
	return out
}

func tarjanSCC(types []*model.TypeDescriptor, position map[*model.TypeDescriptor]int) [][]*model.TypeDescriptor {
	var (
		index   = 0
		stack   []*model.TypeDescriptor
		indices = make(map[*model.TypeDescriptor]int)
		lowlink = make(map[*model.TypeDescriptor]int)
		onStack = make(map[*model.TypeDescriptor]bool)
		sccs    [][]*model.TypeDescriptor
	)

	var strongConnect func(*model.TypeDescriptor)
	strongConnect = func(v *model.TypeDescriptor) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range references(v, position) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []*model.TypeDescriptor
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			// Registration order within a component keeps output stable.
			slices.SortFunc(scc, func(a, b *model.TypeDescriptor) int { return position[a] - position[b] })
			sccs = append(sccs, scc)
		}
	}

	for _, td := range types {
		if _, visited := indices[td]; !visited {
			strongConnect(td)
		}
	}
	return sccs
}
