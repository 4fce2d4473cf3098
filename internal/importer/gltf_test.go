package importer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshbake/internal/scene"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// translationMatrix lays out a translation in accessor column order.
func translationMatrix(x, y, z float32) [4][4]float32 {
	return [4][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {x, y, z, 1}}
}

// writeSkinnedGLB saves a skinned triangle driven by two joints, a material
// using embedded, data URI and external images, and a clip with step and
// cubic samplers.
func writeSkinnedGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()

	attrs := gltf.PrimitiveAttributes{
		gltf.POSITION:  modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		gltf.JOINTS_0:  modeler.WriteJoints(doc, [][4]uint8{{0, 1, 0, 0}, {1, 0, 0, 0}, {0, 0, 0, 0}}),
		gltf.WEIGHTS_0: modeler.WriteWeights(doc, [][4]float32{{0.75, 0.25, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}),
	}
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	ibm := modeler.WriteInverseBindMatrices(doc, [][4][4]float32{
		translationMatrix(5, 6, 7),
		translationMatrix(8, 9, 10),
	})

	img, err := modeler.WriteImage(doc, "albedo", "image/png", bytes.NewReader(pngSignature))
	if err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	doc.Images = append(doc.Images,
		&gltf.Image{URI: "data:image/jpeg;base64,/9j/4AAQ"},
		&gltf.Image{URI: "textures/brick%20wall.png"},
	)
	doc.Samplers = []*gltf.Sampler{{WrapS: gltf.WrapClampToEdge, WrapT: gltf.WrapMirroredRepeat}}
	doc.Textures = []*gltf.Texture{
		{Source: gltf.Index(img), Sampler: gltf.Index(0)},
		{Source: gltf.Index(img + 1)},
		{Source: gltf.Index(img + 2)},
	}
	doc.Materials = []*gltf.Material{{
		Name:                 "Skin",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 0}},
		EmissiveTexture:      &gltf.TextureInfo{Index: 1},
		NormalTexture:        &gltf.NormalTexture{Index: gltf.Index(2)},
	}}

	doc.Meshes = []*gltf.Mesh{{
		Name:       "body",
		Primitives: []*gltf.Primitive{{Attributes: attrs, Indices: gltf.Index(indices), Material: gltf.Index(0)}},
	}}
	doc.Skins = []*gltf.Skin{{Joints: []int{1, 2}, InverseBindMatrices: gltf.Index(ibm)}}
	doc.Nodes = []*gltf.Node{
		{Name: "body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
		{Name: "hip", Children: []int{2}},
		{Name: "knee", Translation: [3]float64{0, -1, 0}},
	}
	doc.Scenes[0].Nodes = []int{0, 1}

	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	steps := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {4, 0, 0}})
	cubic := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{
		{0, 0, 0}, {1, 1, 1}, {0, 0, 0},
		{0, 0, 0}, {2, 2, 2}, {0, 0, 0},
	})
	doc.Animations = []*gltf.Animation{{
		Name: "bend",
		Samplers: []*gltf.AnimationSampler{
			{Input: times, Output: steps, Interpolation: gltf.InterpolationStep},
			{Input: times, Output: cubic, Interpolation: gltf.InterpolationCubicSpline},
		},
		Channels: []*gltf.AnimationChannel{
			{Sampler: 0, Target: gltf.AnimationChannelTarget{Node: gltf.Index(2), Path: gltf.TRSTranslation}},
			{Sampler: 1, Target: gltf.AnimationChannelTarget{Node: gltf.Index(2), Path: gltf.TRSScale}},
		},
	}}

	p := filepath.Join(t.TempDir(), "skinned.glb")
	if err := gltf.SaveBinary(doc, p); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return p
}

func TestOpenGLTFSkin(t *testing.T) {
	s, err := Open(writeSkinnedGLB(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	nodes := s.Nodes()
	if len(nodes) != 3 || nodes[2].Parent != 1 {
		t.Fatalf("nodes = %+v", nodes)
	}
	prim := s.Primitives()[nodes[0].Primitives[0]]

	if prim.Skin == nil {
		t.Fatal("skinned primitive has no skin")
	}
	if got := prim.Skin.Joints; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("skin joints = %v, want [1 2]", got)
	}
	if prim.Joints[0] != [4]int{0, 1, 0, 0} || prim.Joints[1] != [4]int{1, 0, 0, 0} {
		t.Errorf("vertex joints = %v", prim.Joints)
	}
	if prim.Weights[0] != [4]float32{0.75, 0.25, 0, 0} {
		t.Errorf("vertex weights = %v", prim.Weights[0])
	}

	tests := []struct {
		joint   int
		x, y, z float32
	}{
		{0, 5, 6, 7},
		{1, 8, 9, 10},
	}
	for _, tt := range tests {
		m := prim.Skin.InverseBindMatrices[tt.joint]
		if m[12] != tt.x || m[13] != tt.y || m[14] != tt.z || m[15] != 1 {
			t.Errorf("joint %d inverse bind = %v, want translation (%v, %v, %v)", tt.joint, m, tt.x, tt.y, tt.z)
		}
		if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[3] != 0 {
			t.Errorf("joint %d inverse bind basis = %v", tt.joint, m)
		}
	}
}

func TestOpenGLTFTextures(t *testing.T) {
	s, err := Open(writeSkinnedGLB(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	mats := s.Materials()
	if len(mats) != 1 {
		t.Fatalf("materials = %+v", mats)
	}

	base, _ := mats[0].Channel(scene.SemanticBaseColor)
	if base.Texture == nil || !base.Texture.Embedded() {
		t.Fatalf("base color texture = %+v", base.Texture)
	}
	if base.Texture.Ext != "png" || !bytes.Equal(base.Texture.Data, pngSignature) {
		t.Errorf("buffer view image: ext %q, data %v", base.Texture.Ext, base.Texture.Data)
	}
	if base.Texture.WrapU != scene.WrapClamp || base.Texture.WrapV != scene.WrapMirror {
		t.Errorf("wrap = %v/%v, want Clamp/Mirror", base.Texture.WrapU, base.Texture.WrapV)
	}

	em, _ := mats[0].Channel(scene.SemanticEmissive)
	if em.Texture == nil || !em.Texture.Embedded() || em.Texture.Ext != "jpg" {
		t.Fatalf("data URI texture = %+v", em.Texture)
	}
	if em.Texture.Data[0] != 0xff || em.Texture.Data[1] != 0xd8 {
		t.Errorf("data URI bytes = %v", em.Texture.Data)
	}
	if em.Texture.WrapU != scene.WrapRepeat || em.Texture.WrapV != scene.WrapRepeat {
		t.Errorf("texture without sampler should repeat, got %v/%v", em.Texture.WrapU, em.Texture.WrapV)
	}

	norm, _ := mats[0].Channel(scene.SemanticNormal)
	if norm.Texture == nil || norm.Texture.Embedded() {
		t.Fatalf("external texture = %+v", norm.Texture)
	}
	if norm.Texture.Path != "textures/brick wall.png" || norm.Texture.Index != 2 {
		t.Errorf("external texture path = %q index = %d", norm.Texture.Path, norm.Texture.Index)
	}
}

func TestOpenGLTFSamplerInterpolation(t *testing.T) {
	s, err := Open(writeSkinnedGLB(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	clips := s.Animations()
	if len(clips) != 1 || len(clips[0].Channels) != 1 {
		t.Fatalf("clips = %+v", clips)
	}
	ch := clips[0].Channels[0]
	if ch.Node != 2 || ch.Translation == nil || ch.Scale == nil {
		t.Fatalf("channel = %+v", ch)
	}

	if ch.Translation.Interpolation != scene.InterpolationStep {
		t.Errorf("translation interpolation = %v", ch.Translation.Interpolation)
	}
	if v := ch.Translation.SampleVec3(0.9); v.X != 0 {
		t.Errorf("step track at 0.9 = %v, want the first key", v)
	}
	if v := ch.Translation.SampleVec3(1); v.X != 4 {
		t.Errorf("step track at 1 = %v, want the last key", v)
	}

	if ch.Scale.Interpolation != scene.InterpolationCubic || ch.Scale.Len() != 2 {
		t.Fatalf("scale curve = %+v", ch.Scale)
	}
	if v := ch.Scale.SampleVec3(0); v.X != 1 || v.Y != 1 || v.Z != 1 {
		t.Errorf("cubic track at 0 = %v, want (1, 1, 1)", v)
	}
	if v := ch.Scale.SampleVec3(0.5); v.X != 1.5 {
		t.Errorf("cubic track at 0.5 = %v, want 1.5 with flat tangents", v)
	}
}
