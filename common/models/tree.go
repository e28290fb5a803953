package models

// TreeNode is one item of a UI tree. Data is the location's column map.
type TreeNode struct {
	Label    string         `json:"label"`
	Data     map[string]any `json:"data"`
	Expanded bool           `json:"expanded"`
	Items    []*TreeNode    `json:"items"`
}

// TreeResult is what materializing a subtree returns: the subtree's
// top node wrapped in Items, and whether any node in it matched.
type TreeResult struct {
	KeepMe bool        `json:"keepMe"`
	Items  []*TreeNode `json:"items"`
}

// Walk visits n and its descendants depth first
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Items {
		child.Walk(fn)
	}
}
