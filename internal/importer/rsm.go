package importer

import (
	"path"
	"sort"
	"strings"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/encoding"
	"github.com/Faultbox/meshbake/pkg/formats"
	"github.com/Faultbox/meshbake/pkg/math"
)

// rsmClipName names the single clip of an animated RSM model.
const rsmClipName = "default"

type rsmScene struct {
	scene.Graph
}

func (s *rsmScene) Format() string { return "rsm" }

func (s *rsmScene) Close() error { return nil }

func openRSM(filename string) (scene.Adapter, error) {
	rsm, err := formats.ParseRSMFile(filename)
	if err != nil {
		return nil, err
	}
	return &rsmScene{Graph: *rsmGraph(rsm)}, nil
}

func rsmGraph(rsm *formats.RSM) *scene.Graph {
	g := &scene.Graph{}

	for _, tex := range rsm.Textures {
		g.MaterialList = append(g.MaterialList, rsmMaterial(tex))
	}

	byName := make(map[string]int, len(rsm.Nodes))
	for i := range rsm.Nodes {
		if _, dup := byName[rsm.Nodes[i].Name]; !dup {
			byName[rsm.Nodes[i].Name] = i
		}
	}

	g.NodeList = make([]scene.Node, len(rsm.Nodes))
	for i := range rsm.Nodes {
		src := &rsm.Nodes[i]
		n := scene.RestNode(src.Name)
		if p, ok := byName[src.Parent]; ok && src.Parent != src.Name && p != i {
			n.Parent = p
		}
		n.Translation = math.Vec3FromArray(src.Position)
		n.Rotation = rsmRestRotation(src)
		n.Scale = math.Vec3FromArray(src.Scale)

		for _, p := range rsmPrimitives(src, len(rsm.Textures)) {
			if p.Material >= 0 && p.Material < len(g.MaterialList) && p.doubleSided {
				g.MaterialList[p.Material].DoubleSided = true
			}
			n.Primitives = append(n.Primitives, len(g.PrimitiveList))
			g.PrimitiveList = append(g.PrimitiveList, p.Primitive)
		}
		g.NodeList[i] = n
	}
	g.LinkChildren()

	if rsm.HasAnimation() {
		g.ClipList = []scene.Clip{rsmClip(rsm)}
	}
	return g
}

func rsmRestRotation(n *formats.RSMNode) math.Quat {
	if len(n.RotKeys) > 0 {
		return math.QuatFromArray(n.RotKeys[0].Quaternion).Normalize()
	}
	axis := math.Vec3FromArray(n.RotAxis)
	if n.RotAngle == 0 || axis.Length() < 1e-6 {
		return math.QuatIdentity()
	}
	return math.QuatFromAxisAngle(axis.Normalize(), n.RotAngle)
}

func rsmMaterial(texture string) scene.Material {
	p := encoding.NormalizePath(texture)
	name := strings.TrimSuffix(path.Base(p), path.Ext(p))
	white := [4]float32{1, 1, 1, 1}
	return scene.Material{
		Name: name,
		Channels: map[scene.Semantic]scene.MaterialChannel{
			scene.SemanticBaseColor: {
				Color: &white,
				Texture: &scene.TextureRef{
					Index: -1,
					Path:  p,
					WrapU: scene.WrapRepeat,
					WrapV: scene.WrapRepeat,
				},
			},
		},
	}
}

type rsmPrimitive struct {
	scene.Primitive
	doubleSided bool
}

type rsmCorner struct {
	vertex, texCoord uint16
}

// rsmPrimitives splits a node's faces by texture. Vertices are moved into
// node space by the vertex-only offset and 3x3 matrix.
func rsmPrimitives(n *formats.RSMNode, textures int) []rsmPrimitive {
	vertexMatrix := math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]).Mul(math.FromMat3x3(n.Matrix))

	var prims []rsmPrimitive
	slots := make(map[int]int)
	corners := make(map[int]map[rsmCorner]uint32)

	for _, face := range n.Faces {
		valid := true
		for k := 0; k < 3; k++ {
			if int(face.VertexIDs[k]) >= len(n.Vertices) || int(face.TexCoordIDs[k]) >= len(n.TexCoords) {
				valid = false
			}
		}
		if !valid {
			continue
		}

		tex := -1
		if int(face.TextureID) < len(n.TextureIDs) {
			if t := int(n.TextureIDs[face.TextureID]); t >= 0 && t < textures {
				tex = t
			}
		}
		slot, ok := slots[tex]
		if !ok {
			slot = len(prims)
			slots[tex] = slot
			corners[slot] = make(map[rsmCorner]uint32)
			prims = append(prims, rsmPrimitive{Primitive: scene.Primitive{
				Name:     n.Name,
				Material: tex,
				Topology: scene.TopologyTriangles,
			}})
		}
		p := &prims[slot]
		if face.TwoSide != 0 {
			p.doubleSided = true
		}

		for k := 0; k < 3; k++ {
			c := rsmCorner{vertex: face.VertexIDs[k], texCoord: face.TexCoordIDs[k]}
			idx, seen := corners[slot][c]
			if !seen {
				idx = uint32(len(p.Positions))
				corners[slot][c] = idx
				tc := n.TexCoords[c.texCoord]
				p.Positions = append(p.Positions, vertexMatrix.TransformPoint(n.Vertices[c.vertex]))
				p.UVs[0] = append(p.UVs[0], [2]float32{tc.U, tc.V})
				p.Colors[0] = append(p.Colors[0], [4]float32{
					float32(tc.Color[2]) / 255,
					float32(tc.Color[1]) / 255,
					float32(tc.Color[0]) / 255,
					float32(tc.Color[3]) / 255,
				})
			}
			p.Indices = append(p.Indices, idx)
		}
	}
	return prims
}

// rsmClip exposes the keyframes as one clip. Files do not guarantee frame
// order, so each track is sorted by frame.
func rsmClip(rsm *formats.RSM) scene.Clip {
	clip := scene.Clip{Name: rsmClipName}
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		ch := scene.NodeAnimation{Node: i}
		if len(n.PosKeys) > 0 {
			c := &scene.Curve{}
			keys := append([]formats.RSMPosKeyframe(nil), n.PosKeys...)
			sort.SliceStable(keys, func(a, b int) bool { return keys[a].Frame < keys[b].Frame })
			for _, k := range keys {
				c.Times = append(c.Times, float32(k.Frame)/1000)
				c.Values = append(c.Values, [4]float32{k.Position[0], k.Position[1], k.Position[2], 0})
			}
			ch.Translation = c
		}
		if len(n.RotKeys) > 0 {
			c := &scene.Curve{}
			keys := append([]formats.RSMRotKeyframe(nil), n.RotKeys...)
			sort.SliceStable(keys, func(a, b int) bool { return keys[a].Frame < keys[b].Frame })
			for _, k := range keys {
				c.Times = append(c.Times, float32(k.Frame)/1000)
				c.Values = append(c.Values, k.Quaternion)
			}
			ch.Rotation = c
		}
		if len(n.ScaleKeys) > 0 {
			c := &scene.Curve{}
			keys := append([]formats.RSMScaleKeyframe(nil), n.ScaleKeys...)
			sort.SliceStable(keys, func(a, b int) bool { return keys[a].Frame < keys[b].Frame })
			for _, k := range keys {
				c.Times = append(c.Times, float32(k.Frame)/1000)
				c.Values = append(c.Values, [4]float32{k.Scale[0], k.Scale[1], k.Scale[2], 0})
			}
			ch.Scale = c
		}
		if ch.Translation != nil || ch.Rotation != nil || ch.Scale != nil {
			clip.Channels = append(clip.Channels, ch)
		}
	}
	return clip
}
