package entities

// TreeNode is a serializable family tree rooted at one memorial.
type TreeNode struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	BirthYear         int         `json:"birth_year,omitempty"`
	DeathYear         int         `json:"death_year,omitempty"`
	ImageRef          string      `json:"image_ref,omitempty"`
	Country           string      `json:"country,omitempty"`
	RelationshipLabel string      `json:"relationship_label,omitempty"`
	Children          []*TreeNode `json:"children"`
}

// NewTreeNode creates a childless node from a memorial.
func NewTreeNode(m *Memorial, label string) *TreeNode {
	return &TreeNode{
		ID:                m.ID,
		Name:              m.FullName,
		BirthYear:         m.BirthYear(),
		DeathYear:         m.DeathYear(),
		ImageRef:          m.ImageRef,
		Country:           m.Country,
		RelationshipLabel: label,
		Children:          []*TreeNode{},
	}
}

// Walk visits the node and its descendants depth-first.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(*TreeNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
