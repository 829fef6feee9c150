// Package ownership derives a tree of dominant composition edges from a
// schema's foreign keys, the projection the nested/flat serializer walks.
// It is grounded on the multi-pass FK-classification shape used by the
// pack's GraphQL schema introspector (many-to-one / one-to-many passes
// over ForeignKeyConstraints), adapted here to a single composition/
// reference classification followed by a dominance tie-break.
package ownership

import (
	"sort"

	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Edge is one dominant composition: the chosen parent-to-child link that
// places child inside parent in the nested representation.
type Edge struct {
	ParentTable  string
	ChildTable   string
	Relationship schemamodel.Relationship
	ChildColumns []string // == Relationship.FromColumns, kept for convenience
}

// Tree is the full ownership forest derived from a Schema: which
// relationships are compositions vs. references, which composition is
// dominant for each child, and which tables are roots.
type Tree struct {
	// DominantEdge maps a child table to its single dominant incoming edge.
	// Tables absent from this map are roots.
	DominantEdge map[string]Edge
	// Children maps a parent table to its dominant outgoing edges, in a
	// deterministic order (by child table name).
	Children map[string][]Edge
	// Compositions lists every relationship classified as composition,
	// dominant or not, in schema order.
	Compositions []schemamodel.Relationship
	// References lists every relationship classified as reference.
	References []schemamodel.Relationship
}

// IsRoot reports whether table has no dominant parent.
func (t *Tree) IsRoot(table string) bool {
	_, ok := t.DominantEdge[table]
	return !ok
}

// Roots returns every root table, sorted alphabetically.
func (t *Tree) Roots(schema *schemamodel.Schema) []string {
	var roots []string
	for _, name := range schema.TableNames() {
		if t.IsRoot(name) {
			roots = append(roots, name)
		}
	}
	return roots
}

// IsComposition classifies r per spec: cross-table FKs whose delete rule
// is CASCADE are compositions; everything else, including every
// self-referential FK regardless of delete rule, is a reference.
func IsComposition(r schemamodel.Relationship) bool {
	return r.FromTable != r.ToTable && r.OnDelete == schemamodel.ActionCascade
}

// Build derives the ownership tree for schema. It is a pure, deterministic
// function: the same schema always yields the same tree.
func Build(schema *schemamodel.Schema) (*Tree, error) {
	t := &Tree{
		DominantEdge: make(map[string]Edge),
		Children:     make(map[string][]Edge),
	}

	candidatesByChild := make(map[string][]schemamodel.Relationship)
	for _, r := range schema.Relationships {
		if IsComposition(r) {
			t.Compositions = append(t.Compositions, r)
			candidatesByChild[r.FromTable] = append(candidatesByChild[r.FromTable], r)
		} else {
			t.References = append(t.References, r)
		}
	}

	for _, child := range schema.TableNames() {
		candidates := candidatesByChild[child]
		if len(candidates) == 0 {
			continue
		}
		ordered := rankCandidates(candidates)

		chosen, ok := firstAcyclic(t, child, ordered)
		if !ok {
			return nil, &dberrors.CyclicOwnership{Table: child}
		}

		edge := Edge{
			ParentTable:  chosen.ToTable,
			ChildTable:   child,
			Relationship: chosen,
			ChildColumns: chosen.FromColumns,
		}
		t.DominantEdge[child] = edge
		t.Children[edge.ParentTable] = append(t.Children[edge.ParentTable], edge)
	}

	for parent := range t.Children {
		edges := t.Children[parent]
		sort.Slice(edges, func(i, j int) bool {
			return edges[i].ChildTable < edges[j].ChildTable
		})
		t.Children[parent] = edges
	}

	return t, nil
}

// rankCandidates orders composition candidates for a child table by the
// spec's tie-break: lower FK arity first, then alphabetically earlier
// parent-table name.
func rankCandidates(candidates []schemamodel.Relationship) []schemamodel.Relationship {
	ranked := append([]schemamodel.Relationship(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Arity() != ranked[j].Arity() {
			return ranked[i].Arity() < ranked[j].Arity()
		}
		return ranked[i].ToTable < ranked[j].ToTable
	})
	return ranked
}

// firstAcyclic walks ranked candidates in tie-break order and returns the
// first one that would not create a cycle when added as child's dominant
// edge, given the edges already committed in t.
func firstAcyclic(t *Tree, child string, ranked []schemamodel.Relationship) (schemamodel.Relationship, bool) {
	for _, cand := range ranked {
		if !createsCycle(t, child, cand.ToTable) {
			return cand, true
		}
	}
	return schemamodel.Relationship{}, false
}

// createsCycle reports whether making parent the dominant parent of child
// would let child reach itself by following dominant edges upward from
// parent (i.e. parent is already a descendant of child in the tree built
// so far).
func createsCycle(t *Tree, child, parent string) bool {
	current := parent
	seen := map[string]bool{}
	for {
		if current == child {
			return true
		}
		if seen[current] {
			return false // pre-existing cycle elsewhere; not this edge's doing
		}
		seen[current] = true
		edge, ok := t.DominantEdge[current]
		if !ok {
			return false
		}
		current = edge.ParentTable
	}
}
