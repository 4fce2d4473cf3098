package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	result := m.TransformDirection([3]float32{1, 0, 0})

	expected := [3]float32{2, 0, 0}
	if result != expected {
		t.Errorf("TransformDirection: got %v, want %v", result, expected)
	}
}

func TestFromMat3x3(t *testing.T) {
	m4 := FromMat3x3([9]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})

	if m4[0] != 1 || m4[1] != 2 || m4[2] != 3 {
		t.Error("FromMat3x3 column 0 incorrect")
	}
	if m4[4] != 4 || m4[5] != 5 || m4[6] != 6 {
		t.Error("FromMat3x3 column 1 incorrect")
	}
	if m4[15] != 1 {
		t.Errorf("FromMat3x3 [15] should be 1, got %f", m4[15])
	}
}

func TestInverse(t *testing.T) {
	m := FromTRS(Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7), Vec3{2, 2, 2})
	result := m.Mul(m.Inverse())

	id := Identity()
	for i := 0; i < 16; i++ {
		if abs(result[i]-id[i]) > 0.0001 {
			t.Errorf("M * M^-1 element %d: got %f, want %f", i, result[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(0, 1, 1).Inverse(); got != Identity() {
		t.Errorf("singular inverse should be identity, got %v", got)
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name string
		t    Vec3
		r    Quat
		s    Vec3
	}{
		{"identity", Vec3{}, QuatIdentity(), Vec3{1, 1, 1}},
		{"translate only", Vec3{4, -5, 6}, QuatIdentity(), Vec3{1, 1, 1}},
		{"rotate x 90", Vec3{}, QuatFromAxisAngle(Vec3{1, 0, 0}, math.Pi/2), Vec3{1, 1, 1}},
		{"full trs", Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{0, 0, 1}, 2.5), Vec3{2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, gotR, gotS := FromTRS(tt.t, tt.r, tt.s).Decompose()

			if gotT.Distance(tt.t) > 0.0001 {
				t.Errorf("translation: got %v, want %v", gotT, tt.t)
			}
			if gotS.Distance(tt.s) > 0.0001 {
				t.Errorf("scale: got %v, want %v", gotS, tt.s)
			}
			// q and -q are the same rotation
			if d := abs(gotR.Dot(tt.r)); abs(d-1) > 0.0001 {
				t.Errorf("rotation: got %v, want %v", gotR, tt.r)
			}
		})
	}
}

func TestRadians(t *testing.T) {
	if got := Radians(180); abs(got-math.Pi) > 0.0001 {
		t.Errorf("Radians(180) = %v, want pi", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
