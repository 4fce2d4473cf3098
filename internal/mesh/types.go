// Package mesh converts source primitives into runtime mesh data.
package mesh

import (
	"errors"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

// Extraction errors. Both skip the primitive, never the file.
var (
	ErrUnsupportedTopology = errors.New("unsupported primitive topology")
	ErrInvalidPrimitive    = errors.New("invalid primitive data")
)

// Topology is the primitive type stored in the runtime asset.
// Strips and fans are always expanded to triangle lists.
type Topology int

// Runtime topologies.
const (
	TopologyTriangles Topology = iota
	TopologyLines
	TopologyLineStrip
	TopologyPoints
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangles:
		return "Triangles"
	case TopologyLines:
		return "Lines"
	case TopologyLineStrip:
		return "LineStrip"
	case TopologyPoints:
		return "Points"
	default:
		return "Unknown"
	}
}

// Type distinguishes static from skinned meshes.
type Type int

// Mesh types.
const (
	TypeStatic Type = iota
	TypeSkinned
)

// String returns the mesh type name.
func (t Type) String() string {
	if t == TypeSkinned {
		return "Skinned"
	}
	return "Static"
}

// Options are the per-file extraction flags from sidecar metadata.
type Options struct {
	FlipWinding       bool
	FlipUVs           bool
	RegenerateNormals bool
	SmoothNormals     bool
}

// Bone is one mesh-local bone.
type Bone struct {
	Joint       int // joint slot in the source skin
	Node        int // final hierarchy index
	InverseBind math.Mat4
}

// Bounds is an axis-aligned box as center and full-size extents.
type Bounds struct {
	Center  [3]float32
	Extents [3]float32
}

// Mesh is one extracted primitive. Every non-nil attribute slice has
// exactly one entry per position.
type Mesh struct {
	Name        string
	Material    int // source material slot, -1 when unassigned
	Type        Type
	Topology    Topology
	Positions   [][3]float32
	Normals     [][3]float32
	Tangents    [][3]float32
	Bitangents  [][3]float32
	UVs         [scene.MaxUVChannels][][2]float32
	Colors      [scene.MaxColorChannels][][4]float32
	BoneIndices [][scene.MaxInfluences]uint16
	BoneWeights [][scene.MaxInfluences]float32
	Indices     []uint32
	Bones       []Bone
	Bounds      Bounds
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}
