package bvh

import "errors"

var (
	// Raised (via panic) when a traversal needs more pending nodes than
	// StackCapacity. This only happens for pathologically unbalanced trees.
	ErrStackOverflow = errors.New("bvh: traversal stack overflow")

	// Wrapped by the errors returned from Validate.
	ErrInvalidTree = errors.New("bvh: invalid tree")
)
