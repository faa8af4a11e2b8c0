package scene

import "errors"

var (
	ErrNoGeometry = errors.New("scene: mesh contains no triangles")
)
