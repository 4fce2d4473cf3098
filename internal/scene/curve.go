package scene

import (
	"sort"

	"github.com/Faultbox/meshbake/pkg/math"
)

// Interpolation selects how a curve is evaluated between keys.
type Interpolation int

// Interpolation modes.
const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubic
)

// Curve is a keyed animation track in seconds. Vector tracks use the first
// three components of each value; rotation tracks store xyzw quaternions.
// Cubic tracks store (in-tangent, value, out-tangent) triplets per key.
type Curve struct {
	Interpolation Interpolation
	Times         []float32
	Values        [][4]float32
}

// Len returns the number of keys.
func (c *Curve) Len() int {
	return len(c.Times)
}

// Duration returns the time of the last key.
func (c *Curve) Duration() float32 {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[len(c.Times)-1]
}

func (c *Curve) value(i int) [4]float32 {
	if c.Interpolation == InterpolationCubic {
		return c.Values[i*3+1]
	}
	return c.Values[i]
}

// span finds the keys around t and the normalized position between them.
func (c *Curve) span(t float32) (int, int, float32) {
	n := len(c.Times)
	if t <= c.Times[0] {
		return 0, 0, 0
	}
	if t >= c.Times[n-1] {
		return n - 1, n - 1, 0
	}
	j := sort.Search(n, func(k int) bool { return c.Times[k] > t })
	i := j - 1
	dt := c.Times[j] - c.Times[i]
	if dt <= 0 {
		return j, j, 0
	}
	return i, j, (t - c.Times[i]) / dt
}

func (c *Curve) sample(t float32, lerp func(a, b [4]float32, u float32) [4]float32) [4]float32 {
	i, j, u := c.span(t)
	if i == j || c.Interpolation == InterpolationStep {
		return c.value(i)
	}
	if c.Interpolation == InterpolationCubic {
		return c.hermite(i, j, u)
	}
	return lerp(c.value(i), c.value(j), u)
}

func (c *Curve) hermite(i, j int, u float32) [4]float32 {
	dt := c.Times[j] - c.Times[i]
	v0, b0 := c.Values[i*3+1], c.Values[i*3+2]
	v1, a1 := c.Values[j*3+1], c.Values[j*3]

	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	var out [4]float32
	for k := 0; k < 4; k++ {
		out[k] = h00*v0[k] + h10*dt*b0[k] + h01*v1[k] + h11*dt*a1[k]
	}
	return out
}

// SampleVec3 evaluates a translation or scale track.
func (c *Curve) SampleVec3(t float32) math.Vec3 {
	v := c.sample(t, func(a, b [4]float32, u float32) [4]float32 {
		return [4]float32{
			a[0] + u*(b[0]-a[0]),
			a[1] + u*(b[1]-a[1]),
			a[2] + u*(b[2]-a[2]),
		}
	})
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// SampleQuat evaluates a rotation track.
func (c *Curve) SampleQuat(t float32) math.Quat {
	v := c.sample(t, func(a, b [4]float32, u float32) [4]float32 {
		return math.QuatFromArray(a).Slerp(math.QuatFromArray(b), u).Array()
	})
	return math.QuatFromArray(v).Normalize()
}
