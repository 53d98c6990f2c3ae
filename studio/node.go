package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// NodeKind discriminates node payloads on the wire ("type" field).
type NodeKind string

const (
	KindRoot   NodeKind = ""
	KindDialog NodeKind = "dialog"
)

// Payload is the variant-specific part of a Node. The set of variants is closed:
// RootNode and *Dialog.
type Payload interface {
	Kind() NodeKind
	wireFields() map[string]any
}

// RootNode is the payload of a pure container node.
type RootNode struct{}

func (RootNode) Kind() NodeKind { return KindRoot }

func (RootNode) wireFields() map[string]any { return map[string]any{} }

// Node is one element of the learning tree. Each node owns its children and keeps its own
// current index selecting which child is active; the chain of current children from the
// root is the path the user is looking at.
type Node struct {
	payload  Payload
	children []*Node
	current  int

	// parent is a lookup-only link, cleared when the node is detached.
	parent *Node
}

func newNode(p Payload) *Node {
	return &Node{payload: p, current: -1}
}

func NewRootNode() *Node { return newNode(RootNode{}) }

func NewDialogNode(d *Dialog) *Node { return newNode(d) }

func (n *Node) Payload() Payload { return n.payload }

func (n *Node) Kind() NodeKind { return n.payload.Kind() }

// Dialog returns the dialog payload when n is a dialog node.
func (n *Node) Dialog() (*Dialog, bool) {
	d, ok := n.payload.(*Dialog)
	return d, ok
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Len() int { return len(n.children) }

func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// CurrentIndex is -1 exactly when n has no children.
func (n *Node) CurrentIndex() int { return n.current }

// Current returns the active child, or nil for a leaf.
func (n *Node) Current() *Node {
	if n.current < 0 {
		return nil
	}
	return n.children[n.current]
}

// AddChild appends child and makes it the current one.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return errors.New("AddChild: child is nil")
	}
	if child.parent != nil {
		return errors.New("AddChild: child already has a parent")
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return errors.New("AddChild: child is an ancestor")
		}
	}
	n.children = append(n.children, child)
	child.parent = n
	n.current = len(n.children) - 1
	return nil
}

// RemoveChild detaches the child at i. The current index keeps pointing at the same child
// when possible, otherwise at its nearest surviving neighbour.
func (n *Node) RemoveChild(i int) (*Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, fmt.Errorf("RemoveChild: %w: index %d, %d children", ErrNavigationBoundary, i, len(n.children))
	}
	child := n.children[i]
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil

	switch {
	case len(n.children) == 0:
		n.children = nil
		n.current = -1
	case i < n.current || n.current >= len(n.children):
		n.current--
	}
	return child, nil
}

// Navigate shifts the current index by delta. Leaving the child range is a caller bug
// (IsFirstChild/IsLastChild tell whether a move is allowed) and returns
// ErrNavigationBoundary with the index unchanged.
func (n *Node) Navigate(delta int) error {
	next := n.current + delta
	if next < 0 || next >= len(n.children) {
		return fmt.Errorf("Navigate: %w: index %d, %d children", ErrNavigationBoundary, next, len(n.children))
	}
	n.current = next
	return nil
}

func (n *Node) IsFirstChild(child *Node) bool {
	return len(n.children) > 0 && n.children[0] == child
}

func (n *Node) IsLastChild(child *Node) bool {
	return len(n.children) > 0 && n.children[len(n.children)-1] == child
}

// IsFirstInParent reports whether n is its parent's first child. Detached nodes report true.
func (n *Node) IsFirstInParent() bool {
	return n.parent == nil || n.parent.IsFirstChild(n)
}

// IsLastInParent reports whether n is its parent's last child. Detached nodes report true.
func (n *Node) IsLastInParent() bool {
	return n.parent == nil || n.parent.IsLastChild(n)
}

// CurrentPath follows current children from n down to a leaf. n itself is not included.
func (n *Node) CurrentPath() []*Node {
	var path []*Node
	for c := n.Current(); c != nil; c = c.Current() {
		path = append(path, c)
	}
	return path
}

// MarshalJSON writes the payload fields, then "nodes" and "childIndex" when n has children.
func (n *Node) MarshalJSON() ([]byte, error) {
	fields := n.payload.wireFields()
	if len(n.children) > 0 {
		fields["nodes"] = n.children
		fields["childIndex"] = n.current
	}
	return json.Marshal(fields)
}

// UnmarshalNode rebuilds a tree from its JSON form.
func UnmarshalNode(data []byte) (*Node, error) {
	return decodeNode(data, "root")
}

func decodeNode(data json.RawMessage, path string) (*Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrInvalidDocument, path, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: node %s is null", ErrInvalidDocument, path)
	}

	var kind NodeKind
	if raw, ok := fields["type"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: node %s: type: %v", ErrInvalidDocument, path, err)
		}
		if s != nil {
			if *s == "" {
				return nil, fmt.Errorf("%w: empty type at node %s", ErrUnknownNodeType, path)
			}
			kind = NodeKind(*s)
		}
	}

	var payload Payload
	switch kind {
	case KindRoot:
		payload = RootNode{}
	case KindDialog:
		d, err := decodeDialog(fields)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", path, err)
		}
		payload = d
	default:
		return nil, fmt.Errorf("%w: %q at node %s", ErrUnknownNodeType, kind, path)
	}
	n := newNode(payload)

	rawNodes, ok := fields["nodes"]
	if !ok {
		return n, nil
	}
	var children []json.RawMessage
	if err := json.Unmarshal(rawNodes, &children); err != nil {
		return nil, fmt.Errorf("%w: node %s: nodes: %v", ErrInvalidDocument, path, err)
	}
	if len(children) == 0 {
		return n, nil
	}
	for i, raw := range children {
		child, err := decodeNode(raw, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(child); err != nil {
			return nil, err
		}
	}

	rawIndex, ok := fields["childIndex"]
	if !ok {
		return nil, fmt.Errorf("%w: childIndex at node %s", ErrMissingField, path)
	}
	var idx int
	if err := json.Unmarshal(rawIndex, &idx); err != nil {
		return nil, fmt.Errorf("%w: node %s: childIndex: %v", ErrInvalidDocument, path, err)
	}
	if idx < 0 || idx >= len(n.children) {
		return nil, fmt.Errorf("%w: node %s: childIndex %d out of range [0,%d)", ErrInvalidDocument, path, idx, len(n.children))
	}
	n.current = idx
	return n, nil
}
