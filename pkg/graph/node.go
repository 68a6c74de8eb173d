package graph

// NodeType classifies a variable for scoring and display purposes.
type NodeType int

const (
	// Continuous represents a real-valued measured variable.
	Continuous NodeType = iota
	// Discrete represents a categorical measured variable.
	Discrete
	// Latent represents an unmeasured confounder hypothesized by the model.
	Latent
	// ErrorTerm represents an exogenous error variable in a structural model.
	ErrorTerm
)

// String returns the lowercase name of the node type.
func (t NodeType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	case Latent:
		return "latent"
	case ErrorTerm:
		return "error"
	default:
		return "unknown"
	}
}

// Node is a named variable. Identity is the name: two nodes with the same
// name refer to the same variable everywhere, and a Node is never mutated
// after creation. Nodes are shared read-only between graphs, datasets, and
// scores operating on the same variable set.
type Node struct {
	Name       string   // Unique identifier
	Type       NodeType // Variable classification
	Categories int      // Category count for discrete variables (0 otherwise)
}

// NewNode creates a continuous variable with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name, Type: Continuous}
}

// NewDiscreteNode creates a discrete variable with the given category count.
func NewDiscreteNode(name string, categories int) *Node {
	return &Node{Name: name, Type: Discrete, Categories: categories}
}

// NewLatentNode creates a latent variable with the given name.
func NewLatentNode(name string) *Node {
	return &Node{Name: name, Type: Latent}
}

// Names extracts the name from each node in a slice.
// Returns a new slice containing the names in the same order as the input.
func Names(nodes []*Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// PosMap creates a position lookup map from a slice of node names.
// The returned map maps each name to its index in the slice. This is
// commonly used to convert variable orderings into fast position lookups.
func PosMap(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i
	}
	return m
}
