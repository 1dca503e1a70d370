package structure

import "sort"

// FileNode is one file considered by the reorganization planner, carrying
// the cross-file edges (call-graph references) used to estimate the
// cross-edge reduction of a proposed move.
type FileNode struct {
	Path string
	LOC  int
	// References lists other file paths this file calls into, used to
	// estimate how many edges would cross a proposed cluster boundary.
	References []string
}

// MovePlan proposes moving a set of connected files together; TargetDir is
// the directory Plan was called with.
type MovePlan struct {
	TargetDir          string
	Files              []string
	EstimatedCrossEdges int
}

// Plan partitions files into clusters by connectivity (files that
// reference each other are grouped), then emits a MovePlan for every
// cluster of two or more files, estimating the remaining cross-cluster edge
// count after the move via the dependency graph references carried on each
// FileNode. It does not check whether a cluster's files already share a
// directory.
func Plan(dir string, files []FileNode) []MovePlan {
	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f.Path] = i
	}

	parent := make([]int, len(files))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int

	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}

		return parent[x]
	}

	for i, f := range files {
		for _, ref := range f.References {
			if j, ok := index[ref]; ok {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[ri] = rj
				}
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range files {
		root := find(i)
		clusters[root] = append(clusters[root], i)
	}

	var plans []MovePlan

	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}

		paths := make([]string, len(members))
		for i, idx := range members {
			paths[i] = files[idx].Path
		}

		sort.Strings(paths)

		plans = append(plans, MovePlan{
			TargetDir:           dir,
			Files:               paths,
			EstimatedCrossEdges: crossEdgeCount(members, files, index),
		})
	}

	sort.Slice(plans, func(i, j int) bool { return len(plans[i].Files) > len(plans[j].Files) })

	return plans
}

// crossEdgeCount counts references from members of the cluster to files
// outside it — the edges that would remain "crossing" after a move.
func crossEdgeCount(members []int, files []FileNode, index map[string]int) int {
	inCluster := make(map[int]bool, len(members))
	for _, m := range members {
		inCluster[m] = true
	}

	count := 0

	for _, m := range members {
		for _, ref := range files[m].References {
			if j, ok := index[ref]; ok && !inCluster[j] {
				count++
			}
		}
	}

	return count
}
