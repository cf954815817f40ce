package nav

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	// Once Freeze() is called the graph is read-only.
	ErrGraphFrozen = errors.New("navigation graph is frozen and cannot be modified")

	// ErrInvalidGraph is returned when a node, level or link would break the
	// structure of the graph, and by Validate.
	ErrInvalidGraph = errors.New("invalid navigation graph")
)
