package asset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Faultbox/meshbake/internal/animation"
	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/mesh"
	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

func testAsset(t *testing.T) *Asset {
	t.Helper()
	root := scene.RestNode("root")
	child := scene.RestNode("child")
	child.Parent = 0
	child.Translation = math.Vec3{X: 1, Y: 2, Z: 3}
	g := &scene.Graph{NodeList: []scene.Node{root, child}}
	g.LinkChildren()

	h, err := hierarchy.Build(g.NodeList, hierarchy.Options{Scale: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	m := &mesh.Mesh{
		Name:      "tri",
		Type:      mesh.TypeSkinned,
		Topology:  mesh.TopologyTriangles,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
		Bones:     []mesh.Bone{{Node: 1, InverseBind: math.Translate(-1, -2, -3)}},
	}
	m.UVs[0] = [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	m.BoneIndices = [][scene.MaxInfluences]uint16{{0}, {0}, {0}}
	m.BoneWeights = [][scene.MaxInfluences]float32{{1}, {1}, {1}}

	clips := []animation.Clip{{
		Name:           "move",
		Duration:       1,
		TicksPerSecond: 30,
		PreState:       animation.StateDefault,
		PostState:      animation.StateDefault,
		Channels: []animation.Channel{{
			Node:      1,
			Positions: []animation.Vec3Key{{Time: 0}, {Time: 1, Value: math.Vec3{X: 4}}},
			Rotations: []animation.QuatKey{{Value: math.QuatIdentity()}},
			Scales:    []animation.Vec3Key{{Value: math.Vec3{X: 1, Y: 1, Z: 1}}},
		}},
	}}

	return &Asset{
		Metadata:   Metadata{GUID: "guid-1", Source: "tri.gltf", Format: "gltf", Scale: 1, Rotation: "None", FrameRate: 30},
		Meshes:     []Mesh{NewMesh(m, "mat-guid")},
		Nodes:      NewNodes(h, map[int][]int{1: {0}}),
		Animations: NewAnimations(clips),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tri.gltf")
	if err := WriteFile(path, testAsset(t)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h, a, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if h.Magic != Magic || h.Version != Version {
		t.Errorf("header = %+v", h)
	}
	if a.Metadata.GUID != "guid-1" || a.Metadata.Format != "gltf" {
		t.Errorf("metadata = %+v", a.Metadata)
	}

	if len(a.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(a.Meshes))
	}
	m := a.Meshes[0]
	if m.MaterialGUID != "mat-guid" || m.Type != "Skinned" || m.Topology != "Triangles" {
		t.Errorf("mesh header = %q %q %q", m.MaterialGUID, m.Type, m.Topology)
	}
	if len(m.Positions) != 3 || m.Positions[1] != [3]float32{1, 0, 0} {
		t.Errorf("positions = %v", m.Positions)
	}
	if len(m.UVs) != scene.MaxUVChannels || len(m.UVs[0]) != 3 || m.UVs[1] != nil {
		t.Errorf("uv channels = %v", m.UVs)
	}
	if len(m.Bones) != 1 || m.Bones[0].Node != 1 || m.Bones[0].InverseBind[12] != -1 {
		t.Errorf("bones = %+v", m.Bones)
	}

	if len(a.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(a.Nodes))
	}
	if a.Nodes[0].Parent != -1 || len(a.Nodes[0].Children) != 1 || a.Nodes[0].Children[0] != 1 {
		t.Errorf("root node = %+v", a.Nodes[0])
	}
	if a.Nodes[1].Translation != [3]float32{1, 2, 3} || len(a.Nodes[1].Meshes) != 1 {
		t.Errorf("child node = %+v", a.Nodes[1])
	}

	if len(a.Animations) != 1 {
		t.Fatalf("got %d animations, want 1", len(a.Animations))
	}
	anim := a.Animations[0]
	if anim.Name != "move" || anim.PreState != "Default" || len(anim.Channels) != 1 {
		t.Errorf("animation = %+v", anim)
	}
	if got := anim.Channels[0].Positions[1].Value; got != [3]float32{4, 0, 0} {
		t.Errorf("position key = %v, want {4 0 0}", got)
	}
}

func TestWriteFileReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.gltf")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, 4096), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, testAsset(t)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := Read(path); err != nil {
		t.Fatalf("Read after overwrite: %v", err)
	}
}

func TestWriteFileFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteFile(filepath.Join(blocker, "tri.gltf"), testAsset(t))
	if !errors.Is(err, ErrSerialize) {
		t.Errorf("got %v, want ErrSerialize", err)
	}
}

func TestDecodeInvalidHeader(t *testing.T) {
	badMagic, err := msgpack.Marshal(&Header{Magic: [4]byte{'N', 'O', 'P', 'E'}, Version: Version})
	if err != nil {
		t.Fatal(err)
	}
	badVersion, err := msgpack.Marshal(&Header{Magic: Magic, Version: 99})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", badMagic},
		{"bad version", badVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("got %v, want ErrInvalidHeader", err)
			}
		})
	}
}
