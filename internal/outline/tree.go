package outline

// Node is one parsed outline line with its nested children.
// Level is only meaningful relative to other nodes of the same parse.
type Node struct {
	Text     string  `json:"text" yaml:"text"`
	Level    int     `json:"level" yaml:"level"`
	Children []*Node `json:"children" yaml:"children"`
}

// HasChildren reports whether the node has any direct children.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// entry is a cleaned line waiting to be placed in the tree.
type entry struct {
	level int
	text  string
}

// buildTree turns a flat list of entries into a forest.
// Every entry pops the ancestors at its own level or deeper, then attaches
// to whatever is left on top of the stack, or becomes a root.
func buildTree(entries []entry) []*Node {
	roots := make([]*Node, 0)
	var stack []*Node

	for _, e := range entries {
		node := &Node{Text: e.text, Level: e.level, Children: []*Node{}}

		for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}

	return roots
}

// Count returns the number of nodes in the forest, descendants included.
func Count(forest []*Node) int {
	count := len(forest)
	for _, node := range forest {
		count += Count(node.Children)
	}
	return count
}

// Walk visits every node in pre-order, left to right. depth is 0 for roots.
// Returning false from fn skips the node's children.
func Walk(forest []*Node, fn func(node *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.node, top.depth) {
			continue
		}
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: top.node.Children[i], depth: top.depth + 1})
		}
	}
}
