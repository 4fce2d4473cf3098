package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/binzume/modelconv/fbx"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

// fbxTicksPerSecond is the resolution of FBX key times.
const fbxTicksPerSecond = 46186158000

type fbxScene struct {
	scene.Graph
}

func (s *fbxScene) Format() string { return "fbx" }

func (s *fbxScene) Close() error { return nil }

func openFBX(filename string) (scene.Adapter, error) {
	doc, err := fbx.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("fbx open %q: %w", filename, err)
	}
	if doc == nil || doc.RawNode == nil {
		return nil, fmt.Errorf("fbx open %q: empty document", filename)
	}
	g, err := fbxGraph(doc.RawNode)
	if err != nil {
		return nil, fmt.Errorf("fbx %q: %w", filename, err)
	}
	return &fbxScene{Graph: *g}, nil
}

// fbxLink is one end of an object connection. prop names the property an
// OP connection binds to.
type fbxLink struct {
	id   int64
	prop string
}

// fbxRest keeps the Euler form of a model's rest rotation so animated
// axes can be combined with the ones left at rest.
type fbxRest struct {
	translation math.Vec3
	euler       math.Vec3
	scale       math.Vec3
	pre         math.Quat
	order       int
}

// fbxReader resolves the object graph of a parsed FBX node tree.
type fbxReader struct {
	objects  map[int64]*fbx.Node
	children map[int64][]fbxLink // connected objects by destination, in file order
	parents  map[int64][]fbxLink // destinations by source, in file order

	models    []int64
	nodes     map[int64]int
	rest      []fbxRest
	materials map[int64]int
	textures  map[int64]int
	stacks    []int64
}

func fbxGraph(root *fbx.Node) (*scene.Graph, error) {
	r := &fbxReader{
		objects:   make(map[int64]*fbx.Node),
		children:  make(map[int64][]fbxLink),
		parents:   make(map[int64][]fbxLink),
		nodes:     make(map[int64]int),
		materials: make(map[int64]int),
		textures:  make(map[int64]int),
	}
	g := &scene.Graph{}

	var materials []int64
	for _, n := range fbxChildren(fbxChild(root, "Objects")) {
		id := fbxInt(fbxAttr(n, 0))
		r.objects[id] = n
		switch n.Name {
		case "Model":
			r.nodes[id] = len(r.models)
			r.models = append(r.models, id)
		case "Material":
			r.materials[id] = len(materials)
			materials = append(materials, id)
		case "Texture":
			r.textures[id] = len(r.textures)
		case "AnimationStack":
			r.stacks = append(r.stacks, id)
		}
	}

	for _, c := range fbxChildren(fbxChild(root, "Connections")) {
		kind := fbxString(fbxAttr(c, 0))
		if kind != "OO" && kind != "OP" {
			continue
		}
		src, dst := fbxInt(fbxAttr(c, 1)), fbxInt(fbxAttr(c, 2))
		prop := ""
		if kind == "OP" {
			prop = fbxString(fbxAttr(c, 3))
		}
		r.children[dst] = append(r.children[dst], fbxLink{id: src, prop: prop})
		r.parents[src] = append(r.parents[src], fbxLink{id: dst, prop: prop})
	}

	for _, id := range materials {
		g.MaterialList = append(g.MaterialList, r.material(id))
	}

	g.NodeList = make([]scene.Node, len(r.models))
	r.rest = make([]fbxRest, len(r.models))
	for i, id := range r.models {
		n := r.objects[id]
		rest := fbxTransform(n)
		r.rest[i] = rest

		node := scene.RestNode(fbxName(n))
		node.Translation = rest.translation
		node.Rotation = rest.pre.Mul(fbxEuler(rest.euler, rest.order)).Normalize()
		node.Scale = rest.scale
		for _, p := range r.parents[id] {
			if parent, ok := r.nodes[p.id]; ok && p.prop == "" {
				node.Parent = parent
				break
			}
		}
		g.NodeList[i] = node
	}
	g.LinkChildren()

	for i, id := range r.models {
		for _, geom := range r.linked(id, "Geometry") {
			prims, err := r.primitives(id, geom)
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", g.NodeList[i].Name, err)
			}
			for _, p := range prims {
				g.NodeList[i].Primitives = append(g.NodeList[i].Primitives, len(g.PrimitiveList))
				g.PrimitiveList = append(g.PrimitiveList, p)
			}
		}
	}

	g.ClipList = r.clips()
	return g, nil
}

// linked returns the objects of the given type connected to id.
func (r *fbxReader) linked(id int64, typ string) []int64 {
	var out []int64
	for _, l := range r.children[id] {
		if n, ok := r.objects[l.id]; ok && n.Name == typ {
			out = append(out, l.id)
		}
	}
	return out
}

func fbxTransform(n *fbx.Node) fbxRest {
	props := fbxProperties(n)
	return fbxRest{
		translation: props.vec3("Lcl Translation", math.Vec3{}),
		euler:       props.vec3("Lcl Rotation", math.Vec3{}),
		scale:       props.vec3("Lcl Scaling", math.Vec3{X: 1, Y: 1, Z: 1}),
		pre:         fbxEuler(props.vec3("PreRotation", math.Vec3{}), 0),
		order:       int(props.number("RotationOrder", 0)),
	}
}

// fbxEuler converts rotations in degrees applied in the given FBX
// rotation order (0 is XYZ, X applied first).
func fbxEuler(deg math.Vec3, order int) math.Quat {
	qx := math.QuatFromAxisAngle(math.Vec3{X: 1}, math.Radians(deg.X))
	qy := math.QuatFromAxisAngle(math.Vec3{Y: 1}, math.Radians(deg.Y))
	qz := math.QuatFromAxisAngle(math.Vec3{Z: 1}, math.Radians(deg.Z))
	switch order {
	case 1: // XZY
		return qy.Mul(qz).Mul(qx)
	case 2: // YZX
		return qx.Mul(qz).Mul(qy)
	case 3: // YXZ
		return qz.Mul(qx).Mul(qy)
	case 4: // ZXY
		return qy.Mul(qx).Mul(qz)
	case 5: // ZYX
		return qx.Mul(qy).Mul(qz)
	default:
		return qz.Mul(qy).Mul(qx)
	}
}

func (r *fbxReader) material(id int64) scene.Material {
	n := r.objects[id]
	props := fbxProperties(n)
	out := scene.Material{
		Name:     fbxName(n),
		Channels: make(map[scene.Semantic]scene.MaterialChannel),
	}

	base := scene.MaterialChannel{}
	if props.has("DiffuseColor") {
		c := props.vec3("DiffuseColor", math.Vec3{X: 1, Y: 1, Z: 1})
		alpha := 1 - float32(props.number("TransparencyFactor", 0))
		if props.has("Opacity") {
			alpha = float32(props.number("Opacity", 1))
		}
		base.Color = &[4]float32{c.X, c.Y, c.Z, alpha}
	}
	em := scene.MaterialChannel{}
	if c := props.vec3("EmissiveColor", math.Vec3{}); c != (math.Vec3{}) {
		em.Color = &[4]float32{c.X, c.Y, c.Z, 1}
	}
	var normal scene.MaterialChannel

	for _, l := range r.children[id] {
		if t, ok := r.objects[l.id]; !ok || t.Name != "Texture" {
			continue
		}
		switch l.prop {
		case "DiffuseColor":
			if base.Texture == nil {
				base.Texture = r.texture(l.id)
			}
		case "EmissiveColor", "EmissiveFactor":
			if em.Texture == nil {
				em.Texture = r.texture(l.id)
			}
		case "NormalMap", "Bump":
			if normal.Texture == nil {
				normal.Texture = r.texture(l.id)
			}
		}
	}

	if base.Color != nil || base.Texture != nil {
		out.Channels[scene.SemanticBaseColor] = base
	}
	if em.Color != nil || em.Texture != nil {
		out.Channels[scene.SemanticEmissive] = em
	}
	if normal.Texture != nil {
		out.Channels[scene.SemanticNormal] = normal
	}
	return out
}

// texture resolves a texture object. Image bytes embedded in a connected
// video object take precedence over the file name.
func (r *fbxReader) texture(id int64) *scene.TextureRef {
	n := r.objects[id]
	props := fbxProperties(n)
	ref := &scene.TextureRef{Index: r.textures[id], WrapU: scene.WrapRepeat, WrapV: scene.WrapRepeat}
	if props.number("WrapModeU", 0) == 1 {
		ref.WrapU = scene.WrapClamp
	}
	if props.number("WrapModeV", 0) == 1 {
		ref.WrapV = scene.WrapClamp
	}

	file := fbxString(fbxAttr(fbxChild(n, "RelativeFilename"), 0))
	if file == "" {
		file = fbxString(fbxAttr(fbxChild(n, "FileName"), 0))
	}
	for _, v := range r.linked(id, "Video") {
		video := r.objects[v]
		data, _ := fbxAttr(fbxChild(video, "Content"), 0).([]byte)
		if len(data) == 0 {
			continue
		}
		name := file
		if name == "" {
			name = fbxString(fbxAttr(fbxChild(video, "RelativeFilename"), 0))
		}
		ref.Data = data
		ref.Ext = imageExt("", strings.ReplaceAll(name, "\\", "/"))
		return ref
	}
	ref.Path = strings.ReplaceAll(file, "\\", "/")
	return ref
}

// fbxLayer is one layer element of a geometry.
type fbxLayer struct {
	mapping   string
	reference string
	values    []float64
	index     []int64
	comps     int
}

func fbxLayerOf(n *fbx.Node, valuesName, indexName string, comps int) *fbxLayer {
	return &fbxLayer{
		mapping:   fbxString(fbxAttr(fbxChild(n, "MappingInformationType"), 0)),
		reference: fbxString(fbxAttr(fbxChild(n, "ReferenceInformationType"), 0)),
		values:    fbxFloats(fbxAttr(fbxChild(n, valuesName), 0)),
		index:     fbxInts(fbxAttr(fbxChild(n, indexName), 0)),
		comps:     comps,
	}
}

// lookup returns the element used by a polygon corner, or -1.
func (l *fbxLayer) lookup(poly, corner, cp int) int {
	var i int
	switch l.mapping {
	case "ByPolygonVertex":
		i = corner
	case "ByVertice", "ByVertex", "ByControlPoint":
		i = cp
	case "ByPolygon":
		i = poly
	case "AllSame":
		i = 0
	default:
		return -1
	}
	if l.reference == "IndexToDirect" || l.reference == "Index" {
		if i < 0 || i >= len(l.index) {
			return -1
		}
		i = int(l.index[i])
	}
	if i < 0 || (i+1)*l.comps > len(l.values) {
		return -1
	}
	return i
}

func (l *fbxLayer) element(i int) []float64 {
	return l.values[i*l.comps : (i+1)*l.comps]
}

type fbxVertexKey struct {
	cp     int
	normal int
	uv     [scene.MaxUVChannels]int
	color  [scene.MaxColorChannels]int
}

type fbxPrimitiveBuilder struct {
	prim  scene.Primitive
	verts map[fbxVertexKey]uint32
}

// primitives splits a geometry into one triangulated primitive per
// material slot used by its polygons.
func (r *fbxReader) primitives(model, geomID int64) ([]scene.Primitive, error) {
	geom := r.objects[geomID]
	cps := fbxFloats(fbxAttr(fbxChild(geom, "Vertices"), 0))
	if len(cps)%3 != 0 {
		return nil, fmt.Errorf("geometry %q: %d vertex components", fbxName(geom), len(cps))
	}
	cpCount := len(cps) / 3

	var normals *fbxLayer
	var uvs, colors []*fbxLayer
	var matLayer *fbx.Node
	for _, c := range fbxChildren(geom) {
		switch c.Name {
		case "LayerElementNormal":
			if normals == nil {
				normals = fbxLayerOf(c, "Normals", "NormalsIndex", 3)
			}
		case "LayerElementUV":
			if len(uvs) < scene.MaxUVChannels {
				uvs = append(uvs, fbxLayerOf(c, "UV", "UVIndex", 2))
			}
		case "LayerElementColor":
			if len(colors) < scene.MaxColorChannels {
				colors = append(colors, fbxLayerOf(c, "Colors", "ColorIndex", 4))
			}
		case "LayerElementMaterial":
			if matLayer == nil {
				matLayer = c
			}
		}
	}
	matMapping := fbxString(fbxAttr(fbxChild(matLayer, "MappingInformationType"), 0))
	matIndex := fbxInts(fbxAttr(fbxChild(matLayer, "Materials"), 0))
	slots := r.linked(model, "Material")

	skin, influences := r.skin(geomID, cpCount)

	var order []int
	builders := make(map[int]*fbxPrimitiveBuilder)
	builderFor := func(slot int) *fbxPrimitiveBuilder {
		if b, ok := builders[slot]; ok {
			return b
		}
		p := scene.Primitive{Name: fbxName(geom), Material: -1, Topology: scene.TopologyTriangles}
		if slot >= 0 && slot < len(slots) {
			p.Material = r.materials[slots[slot]]
		}
		b := &fbxPrimitiveBuilder{prim: p, verts: make(map[fbxVertexKey]uint32)}
		builders[slot] = b
		order = append(order, slot)
		return b
	}

	add := func(b *fbxPrimitiveBuilder, poly, corner, cp int) uint32 {
		key := fbxVertexKey{cp: cp, normal: -1}
		if normals != nil {
			key.normal = normals.lookup(poly, corner, cp)
		}
		for k := range key.uv {
			key.uv[k] = -1
			if k < len(uvs) {
				key.uv[k] = uvs[k].lookup(poly, corner, cp)
			}
		}
		for k := range key.color {
			key.color[k] = -1
			if k < len(colors) {
				key.color[k] = colors[k].lookup(poly, corner, cp)
			}
		}
		if i, ok := b.verts[key]; ok {
			return i
		}

		p := &b.prim
		i := uint32(len(p.Positions))
		b.verts[key] = i
		p.Positions = append(p.Positions, [3]float32{float32(cps[cp*3]), float32(cps[cp*3+1]), float32(cps[cp*3+2])})
		if normals != nil {
			var n [3]float32
			if key.normal >= 0 {
				e := normals.element(key.normal)
				n = [3]float32{float32(e[0]), float32(e[1]), float32(e[2])}
			}
			p.Normals = append(p.Normals, n)
		}
		for k := range uvs {
			var uv [2]float32
			if key.uv[k] >= 0 {
				e := uvs[k].element(key.uv[k])
				uv = [2]float32{float32(e[0]), float32(e[1])}
			}
			p.UVs[k] = append(p.UVs[k], uv)
		}
		for k := range colors {
			c := [4]float32{1, 1, 1, 1}
			if key.color[k] >= 0 {
				e := colors[k].element(key.color[k])
				c = [4]float32{float32(e[0]), float32(e[1]), float32(e[2]), float32(e[3])}
			}
			p.Colors[k] = append(p.Colors[k], c)
		}
		if skin != nil {
			p.Joints = append(p.Joints, influences[cp].joints)
			p.Weights = append(p.Weights, influences[cp].weights)
		}
		return i
	}

	pvi := fbxInts(fbxAttr(fbxChild(geom, "PolygonVertexIndex"), 0))
	poly, start := 0, 0
	for k, v := range pvi {
		if v >= 0 {
			continue
		}
		// A negative index closes the polygon and stores ^cp.
		corners := make([]int, 0, k-start+1)
		valid := true
		for c := start; c <= k; c++ {
			cp := int(pvi[c])
			if c == k {
				cp = int(^pvi[c])
			}
			if cp < 0 || cp >= cpCount {
				valid = false
			}
			corners = append(corners, cp)
		}
		if valid && len(corners) >= 3 {
			slot := 0
			switch matMapping {
			case "ByPolygon":
				slot = -1
				if poly < len(matIndex) {
					slot = int(matIndex[poly])
				}
			case "AllSame":
				if len(matIndex) > 0 {
					slot = int(matIndex[0])
				}
			}
			b := builderFor(slot)
			first := add(b, poly, start, corners[0])
			prev := add(b, poly, start+1, corners[1])
			for c := 2; c < len(corners); c++ {
				cur := add(b, poly, start+c, corners[c])
				b.prim.Indices = append(b.prim.Indices, first, prev, cur)
				prev = cur
			}
		}
		poly++
		start = k + 1
	}

	prims := make([]scene.Primitive, 0, len(order))
	for _, slot := range order {
		p := builders[slot].prim
		if len(order) > 1 {
			p.Name = fmt.Sprintf("%s %d", p.Name, len(prims))
		}
		if skin != nil {
			p.Skin = skin
		}
		prims = append(prims, p)
	}
	return prims, nil
}

type fbxInfluence struct {
	joints  [scene.MaxInfluences]int
	weights [scene.MaxInfluences]float32
}

// skin collects the clusters of the first skin deformer on a geometry.
// Each control point keeps its strongest influences.
func (r *fbxReader) skin(geomID int64, cpCount int) (*scene.Skin, []fbxInfluence) {
	var skinID int64
	found := false
	for _, id := range r.linked(geomID, "Deformer") {
		if fbxString(fbxAttr(r.objects[id], 2)) == "Skin" {
			skinID, found = id, true
			break
		}
	}
	if !found {
		return nil, nil
	}

	type weighted struct {
		joint  int
		weight float32
	}
	perCP := make([][]weighted, cpCount)
	skin := &scene.Skin{}

	for _, cid := range r.linked(skinID, "Deformer") {
		cluster := r.objects[cid]
		bones := r.linked(cid, "Model")
		if len(bones) == 0 {
			continue
		}
		joint := len(skin.Joints)
		skin.Joints = append(skin.Joints, r.nodes[bones[0]])

		link, ok := fbxMatrix(fbxChild(cluster, "TransformLink"))
		if !ok {
			link = math.Identity()
		}
		xf, ok := fbxMatrix(fbxChild(cluster, "Transform"))
		if !ok {
			xf = math.Identity()
		}
		skin.InverseBindMatrices = append(skin.InverseBindMatrices, link.Inverse().Mul(xf))

		indexes := fbxInts(fbxAttr(fbxChild(cluster, "Indexes"), 0))
		weights := fbxFloats(fbxAttr(fbxChild(cluster, "Weights"), 0))
		for i := 0; i < len(indexes) && i < len(weights); i++ {
			cp := int(indexes[i])
			if cp < 0 || cp >= cpCount || weights[i] <= 0 {
				continue
			}
			perCP[cp] = append(perCP[cp], weighted{joint: joint, weight: float32(weights[i])})
		}
	}
	if len(skin.Joints) == 0 {
		return nil, nil
	}

	out := make([]fbxInfluence, cpCount)
	for cp, ws := range perCP {
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].weight > ws[b].weight })
		for k := 0; k < len(ws) && k < scene.MaxInfluences; k++ {
			out[cp].joints[k] = ws[k].joint
			out[cp].weights[k] = ws[k].weight
		}
	}
	return skin, out
}

func fbxMatrix(n *fbx.Node) (math.Mat4, bool) {
	v := fbxFloats(fbxAttr(n, 0))
	if len(v) != 16 {
		return math.Mat4{}, false
	}
	var m math.Mat4
	for i := range m {
		m[i] = float32(v[i])
	}
	return m, true
}

// fbxAxis is one animation curve, sorted by key time.
type fbxAxis struct {
	times  []int64
	values []float64
}

func fbxAxisOf(n *fbx.Node) *fbxAxis {
	times := fbxInts(fbxAttr(fbxChild(n, "KeyTime"), 0))
	values := append([]float64(nil), fbxFloats(fbxAttr(fbxChild(n, "KeyValueFloat"), 0))...)
	count := min(len(times), len(values))
	a := &fbxAxis{times: times[:count], values: values[:count]}
	sort.Stable(a)
	return a
}

func (a *fbxAxis) Len() int           { return len(a.times) }
func (a *fbxAxis) Less(i, j int) bool { return a.times[i] < a.times[j] }
func (a *fbxAxis) Swap(i, j int) {
	a.times[i], a.times[j] = a.times[j], a.times[i]
	a.values[i], a.values[j] = a.values[j], a.values[i]
}

func (a *fbxAxis) at(t int64) float64 {
	n := len(a.times)
	if t <= a.times[0] {
		return a.values[0]
	}
	if t >= a.times[n-1] {
		return a.values[n-1]
	}
	j := sort.Search(n, func(k int) bool { return a.times[k] > t })
	i := j - 1
	u := float64(t-a.times[i]) / float64(a.times[j]-a.times[i])
	return a.values[i] + u*(a.values[j]-a.values[i])
}

// clips turns every animation stack into a clip. Curves of one property
// are resampled on the union of their key times.
func (r *fbxReader) clips() []scene.Clip {
	var clips []scene.Clip
	for _, stack := range r.stacks {
		clip := scene.Clip{Name: fbxName(r.objects[stack])}
		byNode := make(map[int]int)

		for _, layer := range r.linked(stack, "AnimationLayer") {
			for _, cn := range r.linked(layer, "AnimationCurveNode") {
				for _, target := range r.parents[cn] {
					node, ok := r.nodes[target.id]
					if !ok {
						continue
					}
					curve := r.curve(cn, target.prop, r.rest[node])
					if curve == nil {
						continue
					}
					k, seen := byNode[node]
					if !seen {
						k = len(clip.Channels)
						byNode[node] = k
						clip.Channels = append(clip.Channels, scene.NodeAnimation{Node: node})
					}
					ch := &clip.Channels[k]
					switch target.prop {
					case "Lcl Translation":
						if ch.Translation == nil {
							ch.Translation = curve
						}
					case "Lcl Rotation":
						if ch.Rotation == nil {
							ch.Rotation = curve
						}
					case "Lcl Scaling":
						if ch.Scale == nil {
							ch.Scale = curve
						}
					}
				}
			}
		}
		if len(clip.Channels) > 0 {
			clips = append(clips, clip)
		}
	}
	return clips
}

func (r *fbxReader) curve(cn int64, prop string, rest fbxRest) *scene.Curve {
	var def math.Vec3
	switch prop {
	case "Lcl Translation":
		def = rest.translation
	case "Lcl Rotation":
		def = rest.euler
	case "Lcl Scaling":
		def = rest.scale
	default:
		return nil
	}
	props := fbxProperties(r.objects[cn])
	defaults := [3]float64{
		props.number("d|X", float64(def.X)),
		props.number("d|Y", float64(def.Y)),
		props.number("d|Z", float64(def.Z)),
	}

	var axes [3]*fbxAxis
	var times []int64
	for _, l := range r.children[cn] {
		n, ok := r.objects[l.id]
		if !ok || n.Name != "AnimationCurve" {
			continue
		}
		axis := -1
		switch l.prop {
		case "d|X":
			axis = 0
		case "d|Y":
			axis = 1
		case "d|Z":
			axis = 2
		}
		if axis < 0 || axes[axis] != nil {
			continue
		}
		a := fbxAxisOf(n)
		if a.Len() == 0 {
			continue
		}
		axes[axis] = a
		times = append(times, a.times...)
	}
	if len(times) == 0 {
		return nil
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	c := &scene.Curve{}
	for i, t := range times {
		if i > 0 && t == times[i-1] {
			continue
		}
		var v [3]float64
		for k := range v {
			v[k] = defaults[k]
			if axes[k] != nil {
				v[k] = axes[k].at(t)
			}
		}
		c.Times = append(c.Times, float32(float64(t)/fbxTicksPerSecond))
		if prop == "Lcl Rotation" {
			e := math.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
			c.Values = append(c.Values, rest.pre.Mul(fbxEuler(e, rest.order)).Normalize().Array())
			continue
		}
		c.Values = append(c.Values, [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), 0})
	}
	return c
}

// fbxProps indexes the Properties70 entries of an object by name.
type fbxProps map[string]*fbx.Node

func fbxProperties(n *fbx.Node) fbxProps {
	props := make(fbxProps)
	for _, p := range fbxChildren(fbxChild(n, "Properties70")) {
		props[fbxString(fbxAttr(p, 0))] = p
	}
	return props
}

func (p fbxProps) has(name string) bool {
	_, ok := p[name]
	return ok
}

// number reads the first value of a property. Values start after the
// name, type, label and flags attributes.
func (p fbxProps) number(name string, def float64) float64 {
	return fbxFloat(fbxAttr(p[name], 4), def)
}

func (p fbxProps) vec3(name string, def math.Vec3) math.Vec3 {
	n, ok := p[name]
	if !ok {
		return def
	}
	return math.Vec3{
		X: float32(fbxFloat(fbxAttr(n, 4), float64(def.X))),
		Y: float32(fbxFloat(fbxAttr(n, 5), float64(def.Y))),
		Z: float32(fbxFloat(fbxAttr(n, 6), float64(def.Z))),
	}
}

// fbxName strips the class suffix of binary names ("Hip\x00\x01Model")
// and the class prefix of ASCII ones ("Model::Hip").
func fbxName(n *fbx.Node) string {
	name := fbxString(fbxAttr(n, 1))
	if i := strings.Index(name, "\x00\x01"); i >= 0 {
		return name[:i]
	}
	if i := strings.Index(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

func fbxChild(n *fbx.Node, name string) *fbx.Node {
	if n == nil {
		return nil
	}
	return n.FindChild(name)
}

func fbxChildren(n *fbx.Node) []*fbx.Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func fbxAttr(n *fbx.Node, i int) any {
	if n == nil || i < 0 || i >= len(n.Attributes) || n.Attributes[i] == nil {
		return nil
	}
	return n.Attributes[i].Value
}

func fbxString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func fbxInt(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func fbxFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case int:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return def
	}
}

func fbxFloats(v any) []float64 {
	switch x := v.(type) {
	case []float64:
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	case []int32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	case []int64:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	default:
		return nil
	}
}

func fbxInts(v any) []int64 {
	switch x := v.(type) {
	case []int64:
		return append([]int64(nil), x...)
	case []int32:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	case []float64:
		out := make([]int64, len(x))
		for i, f := range x {
			out[i] = int64(f)
		}
		return out
	default:
		return nil
	}
}
