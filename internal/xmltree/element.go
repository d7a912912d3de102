package xmltree

// Element is one node of a parsed XML document.
// Elements are shared through the parse cache and must not be mutated.
type Element struct {
	Tag      string            // Local tag name
	Attrs    map[string]string // Attribute values keyed by local name
	Text     string            // Trimmed character data before the first child, empty if none
	Children []*Element        // Child elements in document order
	Path     string            // Absolute path of the source file
	Line     int               // Line where the start tag ends
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// FindAll returns every element in the subtree rooted at e whose tag equals tag,
// in document (pre-order) order. e itself is included when it matches.
func (e *Element) FindAll(tag string) []*Element {
	var found []*Element
	e.Walk(func(el *Element) {
		if el.Tag == tag {
			found = append(found, el)
		}
	})
	return found
}

// Walk visits e and all of its descendants in pre-order.
func (e *Element) Walk(visit func(*Element)) {
	if e == nil {
		return
	}
	visit(e)
	for _, child := range e.Children {
		child.Walk(visit)
	}
}

// Count returns the number of elements in the subtree for which match returns true.
func (e *Element) Count(match func(*Element) bool) int {
	n := 0
	e.Walk(func(el *Element) {
		if match(el) {
			n++
		}
	})
	return n
}
