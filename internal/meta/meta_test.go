package meta

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshbake/internal/hierarchy"
)

func TestLoadMesh(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, m *Mesh)
	}{
		{
			name:    "empty uses defaults",
			content: "",
			check: func(t *testing.T, m *Mesh) {
				if *m != DefaultMesh() {
					t.Errorf("got %+v, want defaults", *m)
				}
			},
		},
		{
			name:    "yaml",
			content: "guid: abc\nscale: 0.01\nrotation: NinetyNegative\nflipUVs: false\nframeRate: 60\n",
			check: func(t *testing.T, m *Mesh) {
				if m.GUID != "abc" || m.Scale != 0.01 || m.FrameRate != 60 || m.FlipUVs {
					t.Errorf("got %+v", *m)
				}
				if hierarchy.Rotation(m.Rotation) != hierarchy.RotationNinetyNegative {
					t.Errorf("rotation = %v", m.Rotation)
				}
				if !m.FlipWindingOrder {
					t.Error("flipWindingOrder should keep its default")
				}
			},
		},
		{
			name:    "json with numeric rotation",
			content: `{"guid": "def", "rotation": 1, "regenerateNormals": true}`,
			check: func(t *testing.T, m *Mesh) {
				if m.GUID != "def" || !m.RegenerateNormals {
					t.Errorf("got %+v", *m)
				}
				if hierarchy.Rotation(m.Rotation) != hierarchy.RotationNinetyPositive {
					t.Errorf("rotation = %v", m.Rotation)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "model.gltf.meta")
			if err := os.WriteFile(p, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			m, err := LoadMesh(p)
			if err != nil {
				t.Fatalf("LoadMesh: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestLoadMeshCorrupt(t *testing.T) {
	tests := []string{
		"{guid: [unterminated",
		"rotation: Sideways\n",
		"scale: [1, 2]\n",
	}
	for _, content := range tests {
		p := filepath.Join(t.TempDir(), "model.obj.meta")
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadMesh(p); !errors.Is(err, ErrMetadataCorrupt) {
			t.Errorf("%q: expected ErrMetadataCorrupt, got %v", content, err)
		}
	}
}

func TestLoadMeshMissing(t *testing.T) {
	_, err := LoadMesh(filepath.Join(t.TempDir(), "missing.meta"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestSaveMeshRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "model.rsm.meta")
	m := DefaultMesh()
	m.GUID = "1234"
	m.Rotation = Rotation(hierarchy.RotationNinetyPositive)
	if err := SaveMesh(p, &m); err != nil {
		t.Fatalf("SaveMesh: %v", err)
	}

	got, err := LoadMesh(p)
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}
	if *got != m {
		t.Errorf("got %+v, want %+v", *got, m)
	}
}

func TestHolderRoundTrip(t *testing.T) {
	p := Path(filepath.Join(t.TempDir(), "Brick.mat"))
	if filepath.Ext(p) != Extension {
		t.Fatalf("Path = %q", p)
	}
	if err := WriteHolder(p, &AssetHolder{GUID: "g", TypeName: TypeMaterial}); err != nil {
		t.Fatalf("WriteHolder: %v", err)
	}
	h, err := ReadHolder(p)
	if err != nil {
		t.Fatalf("ReadHolder: %v", err)
	}
	if h.GUID != "g" || h.TypeName != TypeMaterial {
		t.Errorf("got %+v", h)
	}
}
