// Package scene defines the format-neutral scene graph that every importer
// produces and every baking stage consumes.
package scene

import (
	"fmt"

	"github.com/Faultbox/meshbake/pkg/math"
)

// NoParent marks a top-level node.
const NoParent = -1

// Channel limits of the runtime vertex layout.
const (
	MaxUVChannels    = 8
	MaxColorChannels = 4
	MaxInfluences    = 4
)

// Adapter is a read-only view of one parsed source file.
type Adapter interface {
	Format() string
	Nodes() []Node
	Primitives() []Primitive
	Materials() []Material
	Animations() []Clip
	Close() error
}

// Topology is the primitive assembly rule of an index list.
type Topology int

// Topology values.
const (
	TopologyTriangles Topology = iota
	TopologyTriangleStrip
	TopologyTriangleFan
	TopologyLines
	TopologyLineStrip
	TopologyLineLoop
	TopologyPoints
	TopologyUnknown
)

// String returns a human-readable topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangles:
		return "Triangles"
	case TopologyTriangleStrip:
		return "TriangleStrip"
	case TopologyTriangleFan:
		return "TriangleFan"
	case TopologyLines:
		return "Lines"
	case TopologyLineStrip:
		return "LineStrip"
	case TopologyLineLoop:
		return "LineLoop"
	case TopologyPoints:
		return "Points"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Node is one entry of the source node list.
type Node struct {
	Name        string
	Parent      int // NoParent for top-level nodes
	Children    []int
	Primitives  []int // indices into Adapter.Primitives
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// Skin binds a primitive's joint indices to nodes.
type Skin struct {
	Joints              []int // source node index per joint
	InverseBindMatrices []math.Mat4
}

// Primitive is one drawable piece of source geometry.
// Absent channels are nil.
type Primitive struct {
	Name       string
	Material   int // -1 when unassigned
	Topology   Topology
	Positions  [][3]float32
	Normals    [][3]float32
	Tangents   [][4]float32 // xyz + handedness in w
	Bitangents [][3]float32
	UVs        [MaxUVChannels][][2]float32
	Colors     [MaxColorChannels][][4]float32
	Joints     [][MaxInfluences]int // joint slots into Skin.Joints
	Weights    [][MaxInfluences]float32
	Indices    []uint32 // nil means sequential
	Skin       *Skin
}

// WrapMode is a texture addressing mode.
type WrapMode int

// Wrap modes.
const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirror
)

// String returns the wrap mode name used in material descriptors.
func (w WrapMode) String() string {
	switch w {
	case WrapRepeat:
		return "Repeat"
	case WrapMirror:
		return "Mirror"
	default:
		return "Clamp"
	}
}

// TextureRef points at an embedded or external image.
type TextureRef struct {
	Index int    // source texture index, names extracted files
	Path  string // external path relative to the source file
	Data  []byte // embedded image bytes
	Ext   string // embedded image extension without the dot
	WrapU WrapMode
	WrapV WrapMode
}

// Embedded reports whether the image bytes live inside the source file.
func (t *TextureRef) Embedded() bool {
	return len(t.Data) > 0
}

// Semantic is a material channel the baker knows how to map.
type Semantic int

// Material semantics.
const (
	SemanticBaseColor Semantic = iota
	SemanticMetallicRoughness
	SemanticEmissive
	SemanticNormal
	SemanticOcclusion
)

// MaterialChannel holds a constant color, a texture, or both.
type MaterialChannel struct {
	Color   *[4]float32
	Texture *TextureRef
}

// Material is a source material slot.
type Material struct {
	Name        string
	DoubleSided bool
	Channels    map[Semantic]MaterialChannel
}

// Channel returns the channel for s, if the material has one.
func (m *Material) Channel(s Semantic) (MaterialChannel, bool) {
	if m.Channels == nil {
		return MaterialChannel{}, false
	}
	ch, ok := m.Channels[s]
	return ch, ok
}

// NodeAnimation holds the curves that drive one node. Unbound curves are nil.
type NodeAnimation struct {
	Node        int
	Translation *Curve
	Rotation    *Curve
	Scale       *Curve
}

// Clip is a named animation.
type Clip struct {
	Name     string
	Channels []NodeAnimation
}

// Duration returns the end time of the longest bound curve in seconds.
func (c *Clip) Duration() float32 {
	var d float32
	for _, ch := range c.Channels {
		for _, curve := range []*Curve{ch.Translation, ch.Rotation, ch.Scale} {
			if curve != nil {
				d = max(d, curve.Duration())
			}
		}
	}
	return d
}

// Graph is a fully materialized scene. Importers embed it to satisfy Adapter.
type Graph struct {
	NodeList      []Node
	PrimitiveList []Primitive
	MaterialList  []Material
	ClipList      []Clip
}

// Nodes returns the source node list.
func (g *Graph) Nodes() []Node { return g.NodeList }

// Primitives returns every primitive in the file.
func (g *Graph) Primitives() []Primitive { return g.PrimitiveList }

// Materials returns the material slots.
func (g *Graph) Materials() []Material { return g.MaterialList }

// Animations returns the animation clips.
func (g *Graph) Animations() []Clip { return g.ClipList }

// LinkChildren rebuilds every Children list from the Parent fields.
// Out-of-range parents are left for hierarchy validation to reject.
func (g *Graph) LinkChildren() {
	for i := range g.NodeList {
		g.NodeList[i].Children = nil
	}
	for i, n := range g.NodeList {
		if n.Parent >= 0 && n.Parent < len(g.NodeList) {
			g.NodeList[n.Parent].Children = append(g.NodeList[n.Parent].Children, i)
		}
	}
}

// RestNode returns a node with identity transform.
func RestNode(name string) Node {
	return Node{
		Name:     name,
		Parent:   NoParent,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
	}
}
