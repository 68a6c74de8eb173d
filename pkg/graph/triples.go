package graph

// Triple identifies an ordered path fragment <X, Y, Z> through Y.
// Triples are stored in canonical form: the outer nodes are interchangeable,
// so <X, Y, Z> and <Z, Y, X> are the same triple.
type Triple struct {
	X, Y, Z string
}

// NewTriple returns the canonical form of <x, y, z>.
func NewTriple(x, y, z string) Triple {
	if z < x {
		x, z = z, x
	}
	return Triple{X: x, Y: y, Z: z}
}

// MarkAmbiguous records that the collider status of <x, y, z> could not be
// decided (conflicting independence evidence). Ambiguous triples are left
// unoriented by Meek propagation.
func (g *Graph) MarkAmbiguous(x, y, z string) {
	g.ambiguous[NewTriple(x, y, z)] = true
}

// IsAmbiguous reports whether <x, y, z> was marked ambiguous.
func (g *Graph) IsAmbiguous(x, y, z string) bool {
	return g.ambiguous[NewTriple(x, y, z)]
}

// MarkUnderline records that <x, y, z> is definitely a noncollider.
// Underlined triples must never receive two arrowheads at y.
func (g *Graph) MarkUnderline(x, y, z string) {
	g.underline[NewTriple(x, y, z)] = true
}

// IsUnderline reports whether <x, y, z> was marked a definite noncollider.
func (g *Graph) IsUnderline(x, y, z string) bool {
	return g.underline[NewTriple(x, y, z)]
}

// AmbiguousTriples returns all ambiguous triples in unspecified order.
func (g *Graph) AmbiguousTriples() []Triple {
	out := make([]Triple, 0, len(g.ambiguous))
	for t := range g.ambiguous {
		out = append(out, t)
	}
	return out
}
