package core

// These errors are structural errors: mistakes in how a tree is
// assembled or addressed.  Handler and condition errors are user
// errors and are forwarded untouched.

// FrozenTree occurs when a tree's structure is mutated after a
// session has begun executing it.
type FrozenTree struct {
	Tree *Tree
}

func (e *FrozenTree) Error() string {
	return `tree "` + e.Tree.Name + `" is frozen`
}

// DuplicateNode occurs when a node id would appear twice in a tree.
type DuplicateNode struct {
	Tree *Tree
	Id   string
}

func (e *DuplicateNode) Error() string {
	return `duplicate node "` + e.Id + `" in tree "` + e.Tree.Name + `"`
}

// UnknownNode occurs when an id is not in the tree's index.
type UnknownNode struct {
	Tree *Tree
	Id   string
}

func (e *UnknownNode) Error() string {
	return `node "` + e.Id + `" not found in tree "` + e.Tree.Name + `"`
}

// NotComposite occurs when children are added to or removed from a
// handler leaf.
type NotComposite struct {
	Tree *Tree
	Id   string
}

func (e *NotComposite) Error() string {
	return `node "` + e.Id + `" in tree "` + e.Tree.Name + `" cannot have children`
}
