package doctree

import (
	"fmt"
	"slices"
)

// Tree is an arena of nodes rooted at a single Body node. Nodes are addressed
// by NodeID and own their children through id lists; parent ids are kept for
// read-only ascent.
type Tree struct {
	nodes []*Node // nodes[0] is always nil so NoNode never resolves.
	root  NodeID
}

// New returns a tree holding only an empty Body root.
func New() *Tree {
	t := &Tree{nodes: []*Node{nil}}
	t.root = t.alloc(Node{Kind: KindBody})
	return t
}

// Root returns the id of the Body root.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes ever allocated in the tree, detached
// ones included.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Node returns the node addressed by id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id <= NoNode || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Kind returns the kind of id, or zero when id is unknown.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return 0
}

// Parent returns the parent of id, or NoNode for the root and unknown ids.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Children returns the ordered children of id. The slice is owned by the tree.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

func (t *Tree) alloc(n Node) NodeID {
	n.ID = NodeID(len(t.nodes))
	n.Children = nil
	t.nodes = append(t.nodes, &n)
	return n.ID
}

// Append adds n as the last child of parent and returns its id.
func (t *Tree) Append(parent NodeID, n Node) (NodeID, error) {
	p := t.Node(parent)
	if p == nil {
		return NoNode, fmt.Errorf("append to %d: %w", parent, ErrUnknownNode)
	}
	return t.Insert(parent, len(p.Children), n)
}

// Insert adds n as the child of parent at position index.
func (t *Tree) Insert(parent NodeID, index int, n Node) (NodeID, error) {
	p := t.Node(parent)
	if p == nil {
		return NoNode, fmt.Errorf("insert into %d: %w", parent, ErrUnknownNode)
	}
	if !p.Kind.IsContainer() {
		return NoNode, fmt.Errorf("insert into %s %d: %w", p.Kind, parent, ErrNotContainer)
	}
	if !n.Kind.Valid() {
		return NoNode, fmt.Errorf("insert %s: %w", n.Kind, ErrCopyFailure)
	}
	if index < 0 || index > len(p.Children) {
		return NoNode, fmt.Errorf("insert into %d at %d: index out of range", parent, index)
	}
	n.Parent = parent
	id := t.alloc(n)
	// alloc may have grown t.nodes; p still points at the same Node.
	p.Children = slices.Insert(p.Children, index, id)
	return id, nil
}

// Detach removes id from its parent's child list. The node and its subtree
// stay allocated but are no longer reachable from the root.
func (t *Tree) Detach(id NodeID) {
	n := t.Node(id)
	if n == nil || n.Parent == NoNode {
		return
	}
	if p := t.Node(n.Parent); p != nil {
		if i := slices.Index(p.Children, id); i >= 0 {
			p.Children = slices.Delete(p.Children, i, i+1)
		}
	}
	n.Parent = NoNode
}

// Walk visits the subtree rooted at id in depth-first pre-order. Returning
// SkipChildren from fn skips the node's descendants; any other error stops
// the walk and is returned.
func (t *Tree) Walk(id NodeID, fn func(*Node) error) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("walk %d: %w", id, ErrUnknownNode)
	}
	return t.walk(n, fn)
}

func (t *Tree) walk(n *Node, fn func(*Node) error) error {
	if err := fn(n); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	for _, c := range n.Children {
		if err := t.walk(t.nodes[c], fn); err != nil {
			return err
		}
	}
	return nil
}

// SkipChildren is returned by a Walk callback to skip a node's descendants.
var SkipChildren = skipChildren{}

type skipChildren struct{}

func (skipChildren) Error() string { return "skip children" }

// Contains reports whether target is root itself or lies anywhere below it.
// Transparent wrappers are descended like any other container, so content
// behind a hyperlink or wrapper is found.
func (t *Tree) Contains(root, target NodeID) bool {
	n := t.Node(root)
	if n == nil || target == NoNode {
		return false
	}
	if root == target {
		return true
	}
	for _, c := range n.Children {
		if t.Contains(c, target) {
			return true
		}
	}
	return false
}

// NearestInsertable ascends from id's parent and returns the first insertable
// ancestor, or NoNode if there is none.
func (t *Tree) NearestInsertable(id NodeID) NodeID {
	for cur := t.Parent(id); cur != NoNode; cur = t.Parent(cur) {
		if t.Kind(cur).IsInsertable() {
			return cur
		}
	}
	return NoNode
}

// Count returns the number of nodes in the subtree rooted at id that satisfy
// keep (all nodes when keep is nil).
func (t *Tree) Count(id NodeID, keep func(*Node) bool) int {
	count := 0
	t.Walk(id, func(n *Node) error {
		if keep == nil || keep(n) {
			count++
		}
		return nil
	})
	return count
}
