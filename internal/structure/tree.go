package structure

import (
	"sort"

	"github.com/cleared-dev/microerp/internal/model"
)

// Node is a center with its children.
type Node struct {
	Center   model.Center
	Children []*Node
}

// BuildTree arranges centers into a forest. Centers without a parent, or
// whose parent is missing, are roots. Siblings are sorted by name.
func BuildTree(centers []model.Center) []*Node {
	nodes := make(map[int64]*Node, len(centers))
	for _, c := range centers {
		nodes[c.ID] = &Node{Center: c}
	}

	var roots []*Node
	for _, c := range centers {
		n := nodes[c.ID]
		parent, ok := nodes[c.ParentID]
		if c.ParentID == 0 || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sortNodes(roots)
	return roots
}

// Walk visits every node depth-first, passing its depth (roots are 0).
func Walk(roots []*Node, fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(roots, 0)
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Center.Name < nodes[j].Center.Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func sortByName(centers []model.Center) {
	sort.SliceStable(centers, func(i, j int) bool {
		return centers[i].Name < centers[j].Name
	})
}
