package importer

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

type gltfScene struct {
	scene.Graph
}

func (s *gltfScene) Format() string { return "gltf" }

func (s *gltfScene) Close() error { return nil }

// gltfReader converts a decoded document, caching per-mesh and per-skin reads.
type gltfReader struct {
	doc    *gltf.Document
	meshes map[int][]scene.Primitive
	skins  map[int]*scene.Skin
}

func openGLTF(filename string) (scene.Adapter, error) {
	doc, err := gltf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", filename, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("gltf open %q: empty document", filename)
	}

	r := &gltfReader{
		doc:    doc,
		meshes: make(map[int][]scene.Primitive),
		skins:  make(map[int]*scene.Skin),
	}
	s := &gltfScene{}

	for _, m := range doc.Materials {
		s.MaterialList = append(s.MaterialList, r.material(m))
	}
	if err := r.nodes(&s.Graph); err != nil {
		return nil, err
	}
	if s.ClipList, err = r.animations(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *gltfReader) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	return r.doc.Accessors[i], nil
}

func (r *gltfReader) nodes(g *scene.Graph) error {
	doc := r.doc
	g.NodeList = make([]scene.Node, len(doc.Nodes))

	for i, gn := range doc.Nodes {
		n := scene.RestNode(gn.Name)
		n.Children = append([]int(nil), gn.Children...)
		n.Translation, n.Rotation, n.Scale = localTRS(gn)

		if gn.Mesh != nil {
			prims, err := r.mesh(*gn.Mesh)
			if err != nil {
				return err
			}
			var skin *scene.Skin
			if gn.Skin != nil {
				if skin, err = r.skin(*gn.Skin); err != nil {
					return err
				}
			}
			for _, p := range prims {
				if skin != nil && p.Joints != nil {
					p.Skin = skin
				}
				n.Primitives = append(n.Primitives, len(g.PrimitiveList))
				g.PrimitiveList = append(g.PrimitiveList, p)
			}
		}
		g.NodeList[i] = n
	}

	// A child listed under two parents keeps the first one; hierarchy
	// validation rejects the second listing.
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(g.NodeList) && g.NodeList[c].Parent == scene.NoParent {
				g.NodeList[c].Parent = i
			}
		}
	}
	return nil
}

func localTRS(n *gltf.Node) (math.Vec3, math.Quat, math.Vec3) {
	if n.Matrix != identityMatrix && n.Matrix != ([16]float64{}) {
		var m math.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m.Decompose()
	}
	t := n.TranslationOrDefault()
	q := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		math.Quat{X: float32(q[0]), Y: float32(q[1]), Z: float32(q[2]), W: float32(q[3])}.Normalize(),
		math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])}
}

func (r *gltfReader) mesh(i int) ([]scene.Primitive, error) {
	if prims, ok := r.meshes[i]; ok {
		return prims, nil
	}
	if i < 0 || i >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", i)
	}

	gm := r.doc.Meshes[i]
	prims := make([]scene.Primitive, 0, len(gm.Primitives))
	for pi, gp := range gm.Primitives {
		name := gm.Name
		if len(gm.Primitives) > 1 {
			name = fmt.Sprintf("%s %d", gm.Name, pi)
		}
		p, err := r.primitive(name, gp)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", i, pi, err)
		}
		prims = append(prims, p)
	}
	r.meshes[i] = prims
	return prims, nil
}

func gltfTopology(mode gltf.PrimitiveMode) scene.Topology {
	switch mode {
	case gltf.PrimitiveTriangles:
		return scene.TopologyTriangles
	case gltf.PrimitiveTriangleStrip:
		return scene.TopologyTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return scene.TopologyTriangleFan
	case gltf.PrimitiveLines:
		return scene.TopologyLines
	case gltf.PrimitiveLineStrip:
		return scene.TopologyLineStrip
	case gltf.PrimitiveLineLoop:
		return scene.TopologyLineLoop
	case gltf.PrimitivePoints:
		return scene.TopologyPoints
	default:
		return scene.TopologyUnknown
	}
}

func (r *gltfReader) primitive(name string, gp *gltf.Primitive) (scene.Primitive, error) {
	doc := r.doc
	p := scene.Primitive{Name: name, Material: -1, Topology: gltfTopology(gp.Mode)}
	if gp.Material != nil {
		p.Material = *gp.Material
	}

	posIdx, ok := gp.Attributes[gltf.POSITION]
	if !ok {
		// Nothing to extract; the mesh extractor skips it.
		p.Topology = scene.TopologyUnknown
		return p, nil
	}
	acc, err := r.accessor(posIdx)
	if err != nil {
		return p, err
	}
	if p.Positions, err = modeler.ReadPosition(doc, acc, nil); err != nil {
		return p, fmt.Errorf("positions: %w", err)
	}

	if idx, ok := gp.Attributes[gltf.NORMAL]; ok {
		if acc, err = r.accessor(idx); err != nil {
			return p, err
		}
		if p.Normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return p, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := gp.Attributes[gltf.TANGENT]; ok {
		if acc, err = r.accessor(idx); err != nil {
			return p, err
		}
		if p.Tangents, err = modeler.ReadTangent(doc, acc, nil); err != nil {
			return p, fmt.Errorf("tangents: %w", err)
		}
	}

	for ch := 0; ch < scene.MaxUVChannels; ch++ {
		idx, ok := gp.Attributes["TEXCOORD_"+strconv.Itoa(ch)]
		if !ok {
			continue
		}
		if acc, err = r.accessor(idx); err != nil {
			return p, err
		}
		if p.UVs[ch], err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return p, fmt.Errorf("uv channel %d: %w", ch, err)
		}
	}

	for ch := 0; ch < scene.MaxColorChannels; ch++ {
		idx, ok := gp.Attributes["COLOR_"+strconv.Itoa(ch)]
		if !ok {
			continue
		}
		if acc, err = r.accessor(idx); err != nil {
			return p, err
		}
		data, err := modeler.ReadAccessor(doc, acc, nil)
		if err != nil {
			return p, fmt.Errorf("color channel %d: %w", ch, err)
		}
		if p.Colors[ch], err = toFloat4(data, 1); err != nil {
			return p, fmt.Errorf("color channel %d: %w", ch, err)
		}
	}

	if err := r.skinning(gp, &p); err != nil {
		return p, err
	}

	if gp.Indices != nil {
		if acc, err = r.accessor(*gp.Indices); err != nil {
			return p, err
		}
		if p.Indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return p, fmt.Errorf("indices: %w", err)
		}
	}
	return p, nil
}

func (r *gltfReader) skinning(gp *gltf.Primitive, p *scene.Primitive) error {
	jIdx, hasJoints := gp.Attributes[gltf.JOINTS_0]
	wIdx, hasWeights := gp.Attributes[gltf.WEIGHTS_0]
	if !hasJoints || !hasWeights {
		return nil
	}

	acc, err := r.accessor(jIdx)
	if err != nil {
		return err
	}
	joints, err := modeler.ReadJoints(r.doc, acc, nil)
	if err != nil {
		return fmt.Errorf("joints: %w", err)
	}
	if acc, err = r.accessor(wIdx); err != nil {
		return err
	}
	if p.Weights, err = modeler.ReadWeights(r.doc, acc, nil); err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	p.Joints = make([][scene.MaxInfluences]int, len(joints))
	for i, j := range joints {
		for k := range j {
			p.Joints[i][k] = int(j[k])
		}
	}
	return nil
}

func (r *gltfReader) skin(i int) (*scene.Skin, error) {
	if s, ok := r.skins[i]; ok {
		return s, nil
	}
	if i < 0 || i >= len(r.doc.Skins) {
		return nil, fmt.Errorf("skin %d out of range", i)
	}

	gs := r.doc.Skins[i]
	s := &scene.Skin{
		Joints:              append([]int(nil), gs.Joints...),
		InverseBindMatrices: make([]math.Mat4, len(gs.Joints)),
	}
	for k := range s.InverseBindMatrices {
		s.InverseBindMatrices[k] = math.Identity()
	}

	if gs.InverseBindMatrices != nil {
		acc, err := r.accessor(*gs.InverseBindMatrices)
		if err != nil {
			return nil, err
		}
		data, err := modeler.ReadAccessor(r.doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("skin %d inverse bind matrices: %w", i, err)
		}
		mats, ok := data.([][4][4]float32)
		if !ok {
			return nil, fmt.Errorf("skin %d inverse bind matrices: unexpected %T", i, data)
		}
		for k := 0; k < len(mats) && k < len(s.InverseBindMatrices); k++ {
			// Accessor columns map straight onto the column-major layout
			for c := 0; c < 4; c++ {
				for row := 0; row < 4; row++ {
					s.InverseBindMatrices[k][c*4+row] = mats[k][c][row]
				}
			}
		}
	}

	r.skins[i] = s
	return s, nil
}

func (r *gltfReader) material(m *gltf.Material) scene.Material {
	out := scene.Material{
		Name:        m.Name,
		DoubleSided: m.DoubleSided,
		Channels:    make(map[scene.Semantic]scene.MaterialChannel),
	}

	if pbr := m.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		base := scene.MaterialChannel{Color: &[4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}}
		if pbr.BaseColorTexture != nil {
			base.Texture = r.texture(pbr.BaseColorTexture.Index)
		}
		out.Channels[scene.SemanticBaseColor] = base

		mr := scene.MaterialChannel{Color: &[4]float32{
			float32(pbr.MetallicFactorOrDefault()),
			float32(pbr.RoughnessFactorOrDefault()),
			0, 1,
		}}
		if pbr.MetallicRoughnessTexture != nil {
			mr.Texture = r.texture(pbr.MetallicRoughnessTexture.Index)
		}
		out.Channels[scene.SemanticMetallicRoughness] = mr
	}

	if m.EmissiveTexture != nil || m.EmissiveFactor != [3]float64{} {
		e := m.EmissiveFactor
		em := scene.MaterialChannel{Color: &[4]float32{float32(e[0]), float32(e[1]), float32(e[2]), 1}}
		if m.EmissiveTexture != nil {
			em.Texture = r.texture(m.EmissiveTexture.Index)
		}
		out.Channels[scene.SemanticEmissive] = em
	}
	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		out.Channels[scene.SemanticNormal] = scene.MaterialChannel{Texture: r.texture(*m.NormalTexture.Index)}
	}
	if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
		out.Channels[scene.SemanticOcclusion] = scene.MaterialChannel{Texture: r.texture(*m.OcclusionTexture.Index)}
	}
	return out
}

func gltfWrap(w gltf.WrappingMode) scene.WrapMode {
	switch w {
	case gltf.WrapClampToEdge:
		return scene.WrapClamp
	case gltf.WrapMirroredRepeat:
		return scene.WrapMirror
	default:
		return scene.WrapRepeat
	}
}

// texture resolves a texture index to its image. Unreadable images yield a
// reference with neither data nor path, which later resolves to nothing.
func (r *gltfReader) texture(index int) *scene.TextureRef {
	doc := r.doc
	if index < 0 || index >= len(doc.Textures) {
		return nil
	}
	tex := doc.Textures[index]
	ref := &scene.TextureRef{Index: index, WrapU: scene.WrapRepeat, WrapV: scene.WrapRepeat}
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		s := doc.Samplers[*tex.Sampler]
		ref.WrapU = gltfWrap(s.WrapS)
		ref.WrapV = gltfWrap(s.WrapT)
	}
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return ref
	}

	img := doc.Images[*tex.Source]
	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return ref
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return ref
		}
		ref.Data = data
		ref.Ext = imageExt(img.MimeType, img.Name)
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return ref
		}
		ref.Data = data
		ref.Ext = imageExt(dataURIMime(img.URI), img.Name)
	default:
		p, err := url.PathUnescape(img.URI)
		if err != nil {
			p = img.URI
		}
		ref.Path = p
	}
	return ref
}

func dataURIMime(uri string) string {
	uri = strings.TrimPrefix(uri, "data:")
	if i := strings.IndexAny(uri, ";,"); i >= 0 {
		return uri[:i]
	}
	return ""
}

func imageExt(mimeType, name string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/ktx2":
		return "ktx2"
	}
	if ext := strings.TrimPrefix(path.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return "png"
}

func (r *gltfReader) animations() ([]scene.Clip, error) {
	var clips []scene.Clip
	for ai, ga := range r.doc.Animations {
		clip := scene.Clip{Name: ga.Name}
		byNode := make(map[int]int)

		for ci, ch := range ga.Channels {
			if ch.Target.Node == nil || ch.Target.Path == gltf.TRSWeights {
				continue
			}
			if ch.Sampler < 0 || ch.Sampler >= len(ga.Samplers) {
				return nil, fmt.Errorf("animation %d channel %d: sampler %d out of range", ai, ci, ch.Sampler)
			}
			curve, err := r.curve(ga.Samplers[ch.Sampler], ch.Target.Path)
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", ai, ci, err)
			}

			node := *ch.Target.Node
			k, ok := byNode[node]
			if !ok {
				k = len(clip.Channels)
				byNode[node] = k
				clip.Channels = append(clip.Channels, scene.NodeAnimation{Node: node})
			}
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				clip.Channels[k].Translation = curve
			case gltf.TRSRotation:
				clip.Channels[k].Rotation = curve
			case gltf.TRSScale:
				clip.Channels[k].Scale = curve
			}
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

var errKeyCount = errors.New("sampler input and output counts differ")

func (r *gltfReader) curve(s *gltf.AnimationSampler, target gltf.TRSProperty) (*scene.Curve, error) {
	acc, err := r.accessor(s.Input)
	if err != nil {
		return nil, err
	}
	in, err := modeler.ReadAccessor(r.doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("sampler input: %w", err)
	}
	times, ok := in.([]float32)
	if !ok {
		return nil, fmt.Errorf("sampler input: unexpected %T", in)
	}

	if acc, err = r.accessor(s.Output); err != nil {
		return nil, err
	}
	out, err := modeler.ReadAccessor(r.doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("sampler output: %w", err)
	}
	fill := float32(0)
	if target == gltf.TRSRotation {
		fill = 1
	}
	values, err := toFloat4(out, fill)
	if err != nil {
		return nil, fmt.Errorf("sampler output: %w", err)
	}

	c := &scene.Curve{Times: times, Values: values}
	perKey := 1
	switch s.Interpolation {
	case gltf.InterpolationStep:
		c.Interpolation = scene.InterpolationStep
	case gltf.InterpolationCubicSpline:
		c.Interpolation = scene.InterpolationCubic
		perKey = 3
	default:
		c.Interpolation = scene.InterpolationLinear
	}
	if len(values) != len(times)*perKey {
		return nil, fmt.Errorf("%w: %d inputs, %d outputs", errKeyCount, len(times), len(values))
	}
	return c, nil
}

// toFloat4 widens accessor data to four float components, decoding
// normalized integers. Missing components take fill.
func toFloat4(data any, fill float32) ([][4]float32, error) {
	switch v := data.(type) {
	case [][4]float32:
		return v, nil
	case [][3]float32:
		out := make([][4]float32, len(v))
		for i, e := range v {
			out[i] = [4]float32{e[0], e[1], e[2], fill}
		}
		return out, nil
	case [][4]uint8:
		return widen(v, func(x uint8) float32 { return float32(x) / 255 }), nil
	case [][4]uint16:
		return widen(v, func(x uint16) float32 { return float32(x) / 65535 }), nil
	case [][4]int8:
		return widen(v, func(x int8) float32 { return max(float32(x)/127, -1) }), nil
	case [][4]int16:
		return widen(v, func(x int16) float32 { return max(float32(x)/32767, -1) }), nil
	case [][3]uint8:
		out := widen3(v, func(x uint8) float32 { return float32(x) / 255 })
		return fill3(out, fill), nil
	case [][3]uint16:
		out := widen3(v, func(x uint16) float32 { return float32(x) / 65535 })
		return fill3(out, fill), nil
	default:
		return nil, fmt.Errorf("unsupported accessor data %T", data)
	}
}

func widen[T any](v [][4]T, f func(T) float32) [][4]float32 {
	out := make([][4]float32, len(v))
	for i, e := range v {
		out[i] = [4]float32{f(e[0]), f(e[1]), f(e[2]), f(e[3])}
	}
	return out
}

func widen3[T any](v [][3]T, f func(T) float32) [][4]float32 {
	out := make([][4]float32, len(v))
	for i, e := range v {
		out[i] = [4]float32{f(e[0]), f(e[1]), f(e[2]), 0}
	}
	return out
}

func fill3(v [][4]float32, fill float32) [][4]float32 {
	for i := range v {
		v[i][3] = fill
	}
	return v
}
