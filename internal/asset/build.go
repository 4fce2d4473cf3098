package asset

import (
	"github.com/Faultbox/meshbake/internal/animation"
	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/mesh"
)

// NewMesh converts an extracted mesh. materialGUID is empty when the mesh
// has no material.
func NewMesh(m *mesh.Mesh, materialGUID string) Mesh {
	out := Mesh{
		Name:         m.Name,
		MaterialGUID: materialGUID,
		Type:         m.Type.String(),
		Topology:     m.Topology.String(),
		Positions:    m.Positions,
		Normals:      m.Normals,
		Tangents:     m.Tangents,
		Bitangents:   m.Bitangents,
		UVs:          m.UVs[:],
		Colors:       m.Colors[:],
		BoneIndices:  m.BoneIndices,
		BoneWeights:  m.BoneWeights,
		Indices:      m.Indices,
		Center:       m.Bounds.Center,
		Extents:      m.Bounds.Extents,
	}
	for _, b := range m.Bones {
		out.Bones = append(out.Bones, Bone{Node: uint32(b.Node), InverseBind: b.InverseBind})
	}
	return out
}

// NewNodes converts the hierarchy. meshes maps a final node index to the
// indices of its meshes in the payload.
func NewNodes(h *hierarchy.Hierarchy, meshes map[int][]int) []Node {
	nodes := make([]Node, len(h.Nodes))
	for i, n := range h.Nodes {
		node := Node{
			Name:        n.Name,
			Parent:      int32(n.Parent),
			Translation: n.Translation.Array(),
			Rotation:    n.Rotation.Array(),
			Scale:       n.Scale.Array(),
		}
		for _, c := range n.Children {
			node.Children = append(node.Children, uint32(c))
		}
		for _, m := range meshes[i] {
			node.Meshes = append(node.Meshes, uint32(m))
		}
		nodes[i] = node
	}
	return nodes
}

// NewAnimations converts sampled clips.
func NewAnimations(clips []animation.Clip) []Animation {
	out := make([]Animation, len(clips))
	for i, c := range clips {
		a := Animation{
			Name:           c.Name,
			Duration:       c.Duration,
			TicksPerSecond: c.TicksPerSecond,
			PreState:       c.PreState,
			PostState:      c.PostState,
			Channels:       make([]Channel, len(c.Channels)),
		}
		for j, ch := range c.Channels {
			a.Channels[j] = newChannel(ch)
		}
		out[i] = a
	}
	return out
}

func newChannel(ch animation.Channel) Channel {
	out := Channel{
		Node:      uint32(ch.Node),
		Positions: make([]VectorKey, len(ch.Positions)),
		Rotations: make([]QuatKey, len(ch.Rotations)),
		Scales:    make([]VectorKey, len(ch.Scales)),
	}
	for i, k := range ch.Positions {
		out.Positions[i] = VectorKey{Time: k.Time, Value: k.Value.Array()}
	}
	for i, k := range ch.Rotations {
		out.Rotations[i] = QuatKey{Time: k.Time, Value: k.Value.Array()}
	}
	for i, k := range ch.Scales {
		out.Scales[i] = VectorKey{Time: k.Time, Value: k.Value.Array()}
	}
	return out
}
