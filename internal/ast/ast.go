// Package ast implements the Ast node type the execution engine builds
// during parsing (spec §3 "Ast"): integer kind, source location, lexeme
// string, a fixed child array, and a parent back-pointer. A parent
// exclusively owns its children — destroying a node destroys the subtree —
// so Go's GC does the freeing for us; Copy gives the explicit deep-clone
// spec §3 calls out ("Copying requires deep clone").
package ast

import "github.com/dekarrin/hoshi/internal/source"

// Ast is one node of a parsed tree.
type Ast struct {
	Kind     int
	Location source.Position
	Offset   int
	Lexeme   string

	Children []*Ast
	Parent   *Ast
}

// New returns a leaf Ast node (no children, no parent).
func New(kind int, offset int, pos source.Position, lexeme string) *Ast {
	return &Ast{Kind: kind, Offset: offset, Location: pos, Lexeme: lexeme}
}

// AddChild appends child to a's Children and sets its Parent back-pointer.
// Panics if child already has a different parent, since a node is
// exclusively owned by one parent at a time (spec §3).
func (a *Ast) AddChild(child *Ast) {
	if child.Parent != nil && child.Parent != a {
		panic("ast: child already owned by another parent")
	}
	child.Parent = a
	a.Children = append(a.Children, child)
}

// Child returns the i-th child (0-indexed), or nil if out of range.
func (a *Ast) Child(i int) *Ast {
	if i < 0 || i >= len(a.Children) {
		return nil
	}
	return a.Children[i]
}

// ChildSlice returns children [first:last), matching AstChildSlice's
// navigation semantics.
func (a *Ast) ChildSlice(first, last int) []*Ast {
	if first < 0 {
		first = 0
	}
	if last > len(a.Children) {
		last = len(a.Children)
	}
	if first >= last {
		return nil
	}
	return a.Children[first:last]
}

// Copy returns a deep clone of the subtree rooted at a, with no parent set
// on the returned root (it is detached, per spec §3's "copying requires
// deep clone").
func (a *Ast) Copy() *Ast {
	if a == nil {
		return nil
	}
	clone := &Ast{Kind: a.Kind, Location: a.Location, Offset: a.Offset, Lexeme: a.Lexeme}
	for _, c := range a.Children {
		childClone := c.Copy()
		childClone.Parent = clone
		clone.Children = append(clone.Children, childClone)
	}
	return clone
}

// Detach removes a from its parent's Children list and clears a.Parent.
// A no-op if a has no parent.
func (a *Ast) Detach() {
	if a.Parent == nil {
		return
	}
	siblings := a.Parent.Children
	for i, c := range siblings {
		if c == a {
			a.Parent.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	a.Parent = nil
}
