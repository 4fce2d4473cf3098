// Package formats provides parsers for the source model formats the
// baker reads without a third-party loader: Wavefront OBJ/MTL and
// Ragnarok Online RSM.
package formats
