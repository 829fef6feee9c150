// Package sqlemit orders a ChangeSet by foreign-key dependency and
// renders it as parameterized SQL statements. The topological sort is
// grounded on the pack's Kahn's-algorithm table sorter (pgschema's
// topologicallySortTables), adapted from a table-creation order to a
// row-mutation order and extended with delete/update/insert partitioning
// (deletes run child-before-parent, reverse of insert order; updates keep
// their input order).
package sqlemit

import (
	"sort"

	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// parentsFirstOrder returns every table name in schema ordered so that a
// table always comes after every table it has a foreign key to (parents
// before children). Cycles are broken deterministically by falling back
// to alphabetical order for whichever table would otherwise stall the
// queue, mirroring pg_dump's create-tables-then-add-constraints approach:
// table creation order doesn't need to respect a cyclic FK because the
// constraint itself is what's delayed, not the row, and most such cycles
// are avoided upstream by composition/reference classification.
func parentsFirstOrder(schema *schemamodel.Schema) []string {
	names := schema.TableNames() // already alphabetical; doubles as insertion order
	if len(names) <= 1 {
		return names
	}

	// T1 -> T2 iff T1 has an FK to T2 (T2 must come first), so the
	// adjacency list here maps T2 (the dependency) to T1 (the dependent).
	inDegree := make(map[string]int, len(names))
	adj := make(map[string][]string, len(names))
	for _, n := range names {
		inDegree[n] = 0
	}
	for _, r := range schema.Relationships {
		if r.FromTable == r.ToTable {
			continue // self-reference never gates ordering
		}
		if _, ok := inDegree[r.FromTable]; !ok {
			continue
		}
		if _, ok := inDegree[r.ToTable]; !ok {
			continue
		}
		adj[r.ToTable] = append(adj[r.ToTable], r.FromTable)
		inDegree[r.FromTable]++
	}

	var queue []string
	for _, n := range names {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	processed := make(map[string]bool, len(names))
	var result []string

	for len(result) < len(names) {
		if len(queue) == 0 {
			next := nextUnprocessed(names, processed)
			if next == "" {
				break
			}
			queue = append(queue, next)
			inDegree[next] = 0
		}

		current := queue[0]
		queue = queue[1:]
		if processed[current] {
			continue
		}
		processed[current] = true
		result = append(result, current)

		neighbors := append([]string(nil), adj[current]...)
		sort.Strings(neighbors)
		for _, n := range neighbors {
			inDegree[n]--
			if inDegree[n] <= 0 && !processed[n] {
				queue = append(queue, n)
				sort.Strings(queue)
			}
		}
	}

	return result
}

func nextUnprocessed(names []string, processed map[string]bool) string {
	for _, n := range names {
		if !processed[n] {
			return n
		}
	}
	return ""
}

// Order sorts changes per spec §4.6: all Deletes (child-first), then all
// Updates (input order preserved), then all Inserts (parent-first).
func Order(schema *schemamodel.Schema, changes rowdiff.ChangeSet) rowdiff.ChangeSet {
	parentsFirst := parentsFirstOrder(schema)
	rank := make(map[string]int, len(parentsFirst))
	for i, name := range parentsFirst {
		rank[name] = i
	}

	var deletes, updates, inserts rowdiff.ChangeSet
	for _, c := range changes {
		switch c.Kind {
		case rowdiff.Delete:
			deletes = append(deletes, c)
		case rowdiff.Update:
			updates = append(updates, c)
		case rowdiff.Insert:
			inserts = append(inserts, c)
		}
	}

	// Child-first: reverse of parents-first, i.e. higher rank deletes first.
	sort.SliceStable(deletes, func(i, j int) bool {
		return rank[deletes[i].Table] > rank[deletes[j].Table]
	})
	sort.SliceStable(inserts, func(i, j int) bool {
		return rank[inserts[i].Table] < rank[inserts[j].Table]
	})

	ordered := make(rowdiff.ChangeSet, 0, len(changes))
	ordered = append(ordered, deletes...)
	ordered = append(ordered, updates...)
	ordered = append(ordered, inserts...)
	return ordered
}
