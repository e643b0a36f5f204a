package layout

import (
	"sort"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

// components partitions tables into connected components over undirected
// foreign-key adjacency. Union-find with path halving keeps the walk
// iterative, so self-referencing and cyclic key chains cannot blow the
// stack. Members are name-sorted; components are ordered by descending
// size, then by their lexicographically smallest member.
func components(tables []*schema.Table, fks []*schema.ForeignKey) [][]*schema.Table {
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[t.Name] = i
	}
	parent := make([]int, len(tables))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, fk := range fks {
		from, okFrom := index[fk.FromTable]
		to, okTo := index[fk.ToTable]
		if !okFrom || !okTo {
			continue
		}
		rootFrom, rootTo := find(from), find(to)
		if rootFrom != rootTo {
			parent[rootTo] = rootFrom
		}
	}

	groups := make(map[int][]*schema.Table)
	for i, t := range tables {
		root := find(i)
		groups[root] = append(groups[root], t)
	}
	out := make([][]*schema.Table, 0, len(groups))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0].Name < out[j][0].Name
	})
	return out
}

// adjacency builds the undirected neighbor lists used for breadth-first
// placement. Lists are sorted and deduplicated; self-references carry no
// placement information and are skipped.
func adjacency(tables []*schema.Table, fks []*schema.ForeignKey) map[string][]string {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.Name] = true
	}
	adj := make(map[string][]string)
	for _, fk := range fks {
		if !known[fk.FromTable] || !known[fk.ToTable] || fk.FromTable == fk.ToTable {
			continue
		}
		adj[fk.FromTable] = append(adj[fk.FromTable], fk.ToTable)
		adj[fk.ToTable] = append(adj[fk.ToTable], fk.FromTable)
	}
	for name, list := range adj {
		sort.Strings(list)
		deduped := list[:0]
		for i, n := range list {
			if i == 0 || n != list[i-1] {
				deduped = append(deduped, n)
			}
		}
		adj[name] = deduped
	}
	return adj
}

// placementOrder returns a component's tables in breadth-first order from
// its first (lexicographically smallest) member, visiting neighbors in
// name order. Reordering statements in the DDL therefore does not change
// where tables land.
func placementOrder(comp []*schema.Table, adj map[string][]string) []*schema.Table {
	byName := make(map[string]*schema.Table, len(comp))
	for _, t := range comp {
		byName[t.Name] = t
	}
	visited := map[string]bool{comp[0].Name: true}
	queue := []string{comp[0].Name}
	out := make([]*schema.Table, 0, len(comp))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		out = append(out, byName[name])
		for _, next := range adj[name] {
			if !visited[next] && byName[next] != nil {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	// Components are connected by construction, but keep the order total
	// regardless.
	for _, t := range comp {
		if !visited[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
