package expr

// RewriteFunc maps a child node to its replacement.
type RewriteFunc func(Node) (Node, error)

// RewriteChildren applies f to each non-nil child of n. When every call
// returns its input unchanged (by identity), n itself is returned and
// nothing is allocated.
func RewriteChildren(n Node, f RewriteFunc) (Node, error) {
	children := n.Children()
	var changed []Node
	for i, c := range children {
		if c == nil {
			continue
		}
		nc, err := f(c)
		if err != nil {
			return nil, err
		}
		if nc != c {
			if changed == nil {
				changed = make([]Node, len(children))
				copy(changed, children)
			}
			changed[i] = nc
		}
	}
	if changed == nil {
		return n, nil
	}
	return n.WithChildren(changed), nil
}

// Transform rewrites the tree bottom-up: children first, then f on the
// rebuilt parent.
func Transform(n Node, f RewriteFunc) (Node, error) {
	if n == nil {
		return nil, nil
	}
	out, err := RewriteChildren(n, func(c Node) (Node, error) { return Transform(c, f) })
	if err != nil {
		return nil, err
	}
	return f(out)
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		if c != nil {
			Walk(c, fn)
		}
	}
}

// Replace returns tree with every occurrence of find (by identity) replaced
// by with.
func Replace(tree, find, with Node) Node {
	out, _ := Transform(tree, func(n Node) (Node, error) {
		if n == find {
			return with, nil
		}
		return n, nil
	})
	return out
}

// Contains reports whether pred holds for n or any descendant.
func Contains(n Node, pred func(Node) bool) bool {
	found := false
	Walk(n, func(c Node) bool {
		if found {
			return false
		}
		if pred(c) {
			found = true
			return false
		}
		return true
	})
	return found
}
