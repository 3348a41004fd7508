package pack

// MaxDepth is the deepest composite nesting a decode accepts.
const MaxDepth = 32

// Depth counts composite nesting during a single decode call tree.
//
// It is passed by value: each composite decoder calls Enter and hands the
// result to its children, so nothing needs unwinding on return.
type Depth int

// Enter returns the depth for the children of a composite, or a
// MaxDepthExceeded error if that would pass MaxDepth.
func (d Depth) Enter() (Depth, error) {
	if d < 0 || d >= MaxDepth {
		return d, newError(KindMaxDepthExceeded, "PACK-DEPTH-001", "nesting depth exceeds %d", MaxDepth)
	}
	return d + 1, nil
}
