// Package asset defines the runtime mesh asset records and their binary
// encoding: a fixed header record immediately followed by the payload.
package asset

// Magic identifies a baked mesh asset.
var Magic = [4]byte{'S', 'M', 'E', 'A'}

// Version is the payload schema version.
const Version = 1

// Header is the fixed record at the start of every asset file.
type Header struct {
	_msgpack struct{} `msgpack:",as_array"`

	Magic   [4]byte
	Version uint32
}

// Metadata describes how the asset was baked.
type Metadata struct {
	_msgpack struct{} `msgpack:",as_array"`

	GUID      string
	Source    string // source file name
	Format    string
	Scale     float32
	Rotation  string
	FrameRate float32
}

// Bone binds a mesh-local bone slot to a node.
type Bone struct {
	_msgpack struct{} `msgpack:",as_array"`

	Node        uint32
	InverseBind [16]float32
}

// Mesh is one baked primitive. Materials are referenced by GUID only.
type Mesh struct {
	_msgpack struct{} `msgpack:",as_array"`

	Name         string
	MaterialGUID string
	Type         string
	Topology     string
	Positions    [][3]float32
	Normals      [][3]float32
	Tangents     [][3]float32
	Bitangents   [][3]float32
	UVs          [][][2]float32 // one entry per channel slot, nil when absent
	Colors       [][][4]float32
	BoneIndices  [][4]uint16
	BoneWeights  [][4]float32
	Indices      []uint32
	Bones        []Bone
	Center       [3]float32
	Extents      [3]float32
}

// Node is one entry of the node array. Parents precede children.
type Node struct {
	_msgpack struct{} `msgpack:",as_array"`

	Name        string
	Parent      int32 // -1 at the top
	Children    []uint32
	Meshes      []uint32
	Translation [3]float32
	Rotation    [4]float32 // xyzw
	Scale       [3]float32
}

// VectorKey is a position or scale keyframe.
type VectorKey struct {
	_msgpack struct{} `msgpack:",as_array"`

	Time  float32
	Value [3]float32
}

// QuatKey is a rotation keyframe.
type QuatKey struct {
	_msgpack struct{} `msgpack:",as_array"`

	Time  float32
	Value [4]float32
}

// Channel holds the keys of one node.
type Channel struct {
	_msgpack struct{} `msgpack:",as_array"`

	Node      uint32
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

// Animation is a resampled clip.
type Animation struct {
	_msgpack struct{} `msgpack:",as_array"`

	Name           string
	Duration       float32
	TicksPerSecond float32
	PreState       string
	PostState      string
	Channels       []Channel
}

// Asset is the payload record.
type Asset struct {
	_msgpack struct{} `msgpack:",as_array"`

	Metadata   Metadata
	Meshes     []Mesh
	Nodes      []Node
	Animations []Animation
}
