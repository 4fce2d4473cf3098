package formats

import (
	"errors"
	"strings"
	"testing"
)

const testOBJ = `# cube corner
mtllib scene.mtl
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 1 1 0 0 0 1
v 0 1 0 1 1 1
vt 0 0
vt 1 0
vt 1 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1 4//1
usemtl blue
f -4 -3 -2
`

func TestParseOBJ(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(testOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(obj.Positions) != 4 || len(obj.TexCoords) != 3 || len(obj.Normals) != 1 {
		t.Errorf("counts: %d positions, %d texcoords, %d normals",
			len(obj.Positions), len(obj.TexCoords), len(obj.Normals))
	}
	if len(obj.Colors) != 4 || obj.Colors[1] != [3]float32{0, 1, 0} {
		t.Errorf("Colors = %v", obj.Colors)
	}
	if len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "scene.mtl" {
		t.Errorf("MaterialLibs = %v", obj.MaterialLibs)
	}
	if len(obj.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(obj.Groups))
	}

	quad := obj.Groups[0].Faces[0]
	if obj.Groups[0].Material != "red" || len(quad) != 4 {
		t.Fatalf("group 0 = %+v", obj.Groups[0])
	}
	if quad[3] != (OBJIndex{Position: 3, TexCoord: -1, Normal: 0}) {
		t.Errorf("v//vn corner = %+v", quad[3])
	}

	tri := obj.Groups[1].Faces[0]
	want := []OBJIndex{{0, -1, -1}, {1, -1, -1}, {2, -1, -1}}
	for i := range want {
		if tri[i] != want[i] {
			t.Errorf("relative corner %d = %+v, want %+v", i, tri[i], want[i])
		}
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"zero index", "v 0 0 0\nv 0 0 0\nv 0 0 0\nf 0 1 2\n"},
		{"bad float", "v 0 x 0\n"},
		{"short face", "v 0 0 0\nv 0 0 0\nf 1 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tt.src)); !errors.Is(err, ErrInvalidOBJ) {
				t.Errorf("error = %v, want ErrInvalidOBJ", err)
			}
		})
	}
}

func TestParseOBJ_PartialColorsDropped(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader("v 0 0 0 1 1 1\nv 1 0 0\n"))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if obj.Colors != nil {
		t.Errorf("Colors = %v, want nil", obj.Colors)
	}
}

func TestParseMTL(t *testing.T) {
	src := `newmtl red
Kd 1 0 0
Ke 0.5 0.5 0.5
Tr 0.25
map_Kd -bm 1 textures/red.png
map_Ks red_s.png
map_Bump red_n.png

newmtl blue
Kd 0 0 1
`
	mats, err := ParseMTL(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMTL: %v", err)
	}
	if len(mats) != 2 {
		t.Fatalf("got %d materials, want 2", len(mats))
	}

	red := mats[0]
	if red.Name != "red" || red.Diffuse == nil || *red.Diffuse != [3]float32{1, 0, 0} {
		t.Errorf("red = %+v", red)
	}
	if red.Emissive == nil || red.Dissolve != 0.75 {
		t.Errorf("red emissive/dissolve = %v/%v", red.Emissive, red.Dissolve)
	}
	if red.DiffuseMap != "textures/red.png" || red.NormalMap != "red_n.png" {
		t.Errorf("red maps = %q, %q", red.DiffuseMap, red.NormalMap)
	}
	if mats[1].Emissive != nil || mats[1].Dissolve != 1 {
		t.Errorf("blue = %+v", mats[1])
	}
}
