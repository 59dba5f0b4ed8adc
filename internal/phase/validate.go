package phase

// validateAcyclic proves the dependency graph has no cycles using Kahn's
// algorithm. If a cycle exists, a deterministic DFS extracts one cycle
// path for the error message.
func (s *Set) validateAcyclic() error {
	// indeg[i] counts unresolved dependencies of phase i; outgoing edges
	// run dependency -> dependent.
	indeg := make([]int, len(s.phases))
	outgoing := make([][]int, len(s.phases))
	for i, p := range s.phases {
		indeg[i] = len(p.DependsOn)
		for _, dep := range p.DependsOn {
			d := s.byID[dep]
			outgoing[d] = append(outgoing[d], i)
		}
	}

	queue := make([]int, 0, len(indeg))
	for i := range indeg {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if visited == len(s.phases) {
		return nil
	}
	return cycleError(s.findCycle(outgoing))
}

// findCycle performs a DFS in declaration-index order and reconstructs one
// cycle path as a stable witness for error reporting.
func (s *Set) findCycle(outgoing [][]int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(s.phases))
	parent := make([]int, len(s.phases))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] {
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				// Back-edge u -> v closes the cycle v .. u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range s.phases {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}

	// The walk collected the path in reverse; flip to forward order.
	names := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		names = append(names, s.phases[cycle[i]].ID)
	}
	return names
}
