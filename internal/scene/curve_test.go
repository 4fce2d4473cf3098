package scene

import (
	"math"
	"testing"

	bmath "github.com/Faultbox/meshbake/pkg/math"
)

func TestCurveSampleVec3(t *testing.T) {
	linear := &Curve{
		Interpolation: InterpolationLinear,
		Times:         []float32{0, 1, 3},
		Values:        [][4]float32{{0, 0, 0}, {10, 0, 0}, {10, 20, 0}},
	}
	step := &Curve{
		Interpolation: InterpolationStep,
		Times:         linear.Times,
		Values:        linear.Values,
	}

	tests := []struct {
		name  string
		curve *Curve
		t     float32
		want  bmath.Vec3
	}{
		{"before first key", linear, -1, bmath.Vec3{}},
		{"on first key", linear, 0, bmath.Vec3{}},
		{"halfway first span", linear, 0.5, bmath.Vec3{X: 5}},
		{"halfway second span", linear, 2, bmath.Vec3{X: 10, Y: 10}},
		{"after last key", linear, 9, bmath.Vec3{X: 10, Y: 20}},
		{"step holds previous key", step, 0.9, bmath.Vec3{}},
		{"step on key", step, 1, bmath.Vec3{X: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.curve.SampleVec3(tt.t)
			if got.Distance(tt.want) > 1e-5 {
				t.Errorf("SampleVec3(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestCurveSampleQuat(t *testing.T) {
	q0 := bmath.QuatIdentity()
	q1 := bmath.QuatFromAxisAngle(bmath.Vec3{Y: 1}, math.Pi/2)
	c := &Curve{
		Interpolation: InterpolationLinear,
		Times:         []float32{0, 2},
		Values:        [][4]float32{q0.Array(), q1.Array()},
	}

	got := c.SampleQuat(1)
	want := bmath.QuatFromAxisAngle(bmath.Vec3{Y: 1}, math.Pi/4)
	if d := got.Dot(want); math.Abs(float64(d)-1) > 1e-4 {
		t.Errorf("SampleQuat(1) = %v, want %v", got, want)
	}
}

func TestCurveCubicHitsKeys(t *testing.T) {
	c := &Curve{
		Interpolation: InterpolationCubic,
		Times:         []float32{0, 1},
		Values: [][4]float32{
			{0, 0, 0}, {1, 2, 3}, {5, 0, 0},
			{0, 0, 0}, {4, 5, 6}, {0, 0, 0},
		},
	}

	if got := c.SampleVec3(0); got != (bmath.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("SampleVec3(0) = %v", got)
	}
	if got := c.SampleVec3(1); got != (bmath.Vec3{X: 4, Y: 5, Z: 6}) {
		t.Errorf("SampleVec3(1) = %v", got)
	}
	if c.Duration() != 1 {
		t.Errorf("Duration() = %v, want 1", c.Duration())
	}
}

func TestClipDuration(t *testing.T) {
	clip := Clip{Channels: []NodeAnimation{
		{Node: 0, Rotation: &Curve{Times: []float32{0, 1.5}, Values: make([][4]float32, 2)}},
		{Node: 1, Scale: &Curve{Times: []float32{0, 2.5}, Values: make([][4]float32, 2)}},
	}}
	if got := clip.Duration(); got != 2.5 {
		t.Errorf("Duration() = %v, want 2.5", got)
	}
}

func TestLinkChildren(t *testing.T) {
	g := &Graph{NodeList: []Node{RestNode("a"), RestNode("b"), RestNode("c")}}
	g.NodeList[1].Parent = 0
	g.NodeList[2].Parent = 0
	g.LinkChildren()

	if got := g.NodeList[0].Children; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("children of a = %v, want [1 2]", got)
	}
}
