package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/formats"
)

// objRootName names the single node an OBJ file produces.
const objRootName = "root"

type objScene struct {
	scene.Graph
}

func (s *objScene) Format() string { return "obj" }

func (s *objScene) Close() error { return nil }

func openOBJ(filename string) (scene.Adapter, error) {
	obj, err := formats.ParseOBJFile(filename)
	if err != nil {
		return nil, err
	}
	mats, err := loadMTL(filename, obj.MaterialLibs)
	if err != nil {
		return nil, err
	}
	return &objScene{Graph: *objGraph(obj, mats)}, nil
}

// loadMTL reads the declared material libraries, falling back to a library
// next to the OBJ with the same base name. A missing library is not fatal.
func loadMTL(filename string, libs []string) ([]formats.MTLMaterial, error) {
	dir := filepath.Dir(filename)
	if len(libs) == 0 {
		libs = []string{strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ".mtl"}
	}

	var mats []formats.MTLMaterial
	for _, lib := range libs {
		m, err := formats.ParseMTLFile(filepath.Join(dir, filepath.FromSlash(lib)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("material library %s: %w", lib, err)
		}
		mats = append(mats, m...)
	}
	return mats, nil
}

type objCorner struct {
	pos, tex, norm int
}

func objGraph(obj *formats.OBJ, mats []formats.MTLMaterial) *scene.Graph {
	g := &scene.Graph{}

	slots := make(map[string]int, len(mats))
	for _, m := range mats {
		if _, dup := slots[m.Name]; dup {
			continue
		}
		slots[m.Name] = len(g.MaterialList)
		g.MaterialList = append(g.MaterialList, objMaterial(m))
	}

	root := scene.RestNode(objRootName)
	for _, grp := range obj.Groups {
		p := objPrimitive(obj, grp)
		if len(p.Indices) == 0 {
			continue
		}
		p.Material = -1
		if slot, ok := slots[grp.Material]; ok {
			p.Material = slot
		}
		root.Primitives = append(root.Primitives, len(g.PrimitiveList))
		g.PrimitiveList = append(g.PrimitiveList, p)
	}
	g.NodeList = []scene.Node{root}
	return g
}

// objPrimitive fan-triangulates a group and unifies corners that share
// the same attribute triple.
func objPrimitive(obj *formats.OBJ, grp formats.OBJGroup) scene.Primitive {
	p := scene.Primitive{Name: grp.Material, Topology: scene.TopologyTriangles}

	hasTex, hasNorm := true, true
	for _, face := range grp.Faces {
		for _, c := range face {
			hasTex = hasTex && c.TexCoord >= 0
			hasNorm = hasNorm && c.Normal >= 0
		}
	}

	verts := make(map[objCorner]uint32)
	add := func(c formats.OBJIndex) uint32 {
		key := objCorner{pos: c.Position, tex: -1, norm: -1}
		if hasTex {
			key.tex = c.TexCoord
		}
		if hasNorm {
			key.norm = c.Normal
		}
		if i, ok := verts[key]; ok {
			return i
		}
		i := uint32(len(p.Positions))
		verts[key] = i
		p.Positions = append(p.Positions, obj.Positions[key.pos])
		if obj.Colors != nil {
			col := obj.Colors[key.pos]
			p.Colors[0] = append(p.Colors[0], [4]float32{col[0], col[1], col[2], 1})
		}
		if hasTex {
			p.UVs[0] = append(p.UVs[0], obj.TexCoords[key.tex])
		}
		if hasNorm {
			p.Normals = append(p.Normals, obj.Normals[key.norm])
		}
		return i
	}

	for _, face := range grp.Faces {
		if len(face) < 3 {
			continue
		}
		first := add(face[0])
		prev := add(face[1])
		for _, c := range face[2:] {
			cur := add(c)
			p.Indices = append(p.Indices, first, prev, cur)
			prev = cur
		}
	}
	return p
}

func objMaterial(m formats.MTLMaterial) scene.Material {
	out := scene.Material{
		Name:     m.Name,
		Channels: make(map[scene.Semantic]scene.MaterialChannel),
	}

	base := scene.MaterialChannel{}
	if m.Diffuse != nil {
		base.Color = &[4]float32{m.Diffuse[0], m.Diffuse[1], m.Diffuse[2], m.Dissolve}
	}
	base.Texture = objTexture(m.DiffuseMap)
	if base.Color != nil || base.Texture != nil {
		out.Channels[scene.SemanticBaseColor] = base
	}

	em := scene.MaterialChannel{Texture: objTexture(m.EmissiveMap)}
	if m.Emissive != nil && *m.Emissive != ([3]float32{}) {
		em.Color = &[4]float32{m.Emissive[0], m.Emissive[1], m.Emissive[2], 1}
	}
	if em.Color != nil || em.Texture != nil {
		out.Channels[scene.SemanticEmissive] = em
	}

	if tex := objTexture(m.NormalMap); tex != nil {
		out.Channels[scene.SemanticNormal] = scene.MaterialChannel{Texture: tex}
	}
	return out
}

func objTexture(p string) *scene.TextureRef {
	if p == "" {
		return nil
	}
	return &scene.TextureRef{
		Index: -1,
		Path:  strings.ReplaceAll(p, "\\", "/"),
		WrapU: scene.WrapRepeat,
		WrapV: scene.WrapRepeat,
	}
}
