// Package hierarchy flattens a source node graph into the runtime node array.
package hierarchy

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

// RootName is the name of the injected coordinate-correction node.
const RootName = "BakeRoot"

// ErrMalformedHierarchy is returned when a node cannot be reached from a
// top-level node through its declared parent.
var ErrMalformedHierarchy = errors.New("malformed node hierarchy")

// Rotation is a coordinate-correction rotation about the X axis.
type Rotation int

// Rotation corrections.
const (
	RotationNone Rotation = iota
	RotationNinetyPositive
	RotationNinetyNegative
)

// String returns the rotation name as written in sidecar metadata.
func (r Rotation) String() string {
	switch r {
	case RotationNinetyPositive:
		return "NinetyPositive"
	case RotationNinetyNegative:
		return "NinetyNegative"
	default:
		return "None"
	}
}

// ParseRotation accepts a rotation name or its numeric value.
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "None", "0", "":
		return RotationNone, nil
	case "NinetyPositive", "1":
		return RotationNinetyPositive, nil
	case "NinetyNegative", "2":
		return RotationNinetyNegative, nil
	default:
		return RotationNone, fmt.Errorf("unknown rotation %q", s)
	}
}

// Quat returns the correction as a quaternion.
func (r Rotation) Quat() math.Quat {
	axis := math.Vec3{X: 1}
	switch r {
	case RotationNinetyPositive:
		return math.QuatFromAxisAngle(axis, math.Radians(90))
	case RotationNinetyNegative:
		return math.QuatFromAxisAngle(axis, math.Radians(-90))
	default:
		return math.QuatIdentity()
	}
}

// Options controls the synthetic root.
type Options struct {
	Scale    float32
	Rotation Rotation
}

// NeedsRoot reports whether a correction node must be injected.
func (o Options) NeedsRoot() bool {
	return o.Scale != 1 || o.Rotation != RotationNone
}

// Node is one entry of the flattened hierarchy.
type Node struct {
	Name        string
	Source      int // source node index, -1 for the synthetic root
	Parent      int // -1 for the top of the hierarchy
	Children    []int
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// Hierarchy is a node array in which every parent precedes its children.
type Hierarchy struct {
	Nodes   []Node
	toFinal []int
	hasRoot bool
}

// Index maps a source node index to its final index.
func (h *Hierarchy) Index(source int) (int, bool) {
	if source < 0 || source >= len(h.toFinal) || h.toFinal[source] < 0 {
		return 0, false
	}
	return h.toFinal[source], true
}

// HasSyntheticRoot reports whether node 0 is the injected correction node.
func (h *Hierarchy) HasSyntheticRoot() bool {
	return h.hasRoot
}

type visit struct {
	source int
	parent int // final index of the parent, -1 at the top
}

// Build walks the source nodes depth first from every top-level node in
// source order and assigns final indices in visiting order.
func Build(nodes []scene.Node, opts Options) (*Hierarchy, error) {
	h := &Hierarchy{toFinal: make([]int, len(nodes))}
	for i := range h.toFinal {
		h.toFinal[i] = -1
	}

	for i, n := range nodes {
		if n.Parent != scene.NoParent && (n.Parent < 0 || n.Parent >= len(nodes)) {
			return nil, fmt.Errorf("%w: node %d %q has parent %d out of range", ErrMalformedHierarchy, i, n.Name, n.Parent)
		}
	}

	top := -1
	if opts.NeedsRoot() {
		h.hasRoot = true
		h.Nodes = append(h.Nodes, Node{
			Name:     RootName,
			Source:   -1,
			Parent:   -1,
			Rotation: opts.Rotation.Quat(),
			Scale:    math.Vec3{X: opts.Scale, Y: opts.Scale, Z: opts.Scale},
		})
		top = 0
	}

	var stack []visit
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Parent == scene.NoParent {
			stack = append(stack, visit{source: i, parent: top})
		}
	}

	names := newNameSet()
	if h.hasRoot {
		names.claim(RootName)
	}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if h.toFinal[v.source] >= 0 {
			return nil, fmt.Errorf("%w: node %d %q reached twice", ErrMalformedHierarchy, v.source, nodes[v.source].Name)
		}

		src := nodes[v.source]
		idx := len(h.Nodes)
		h.toFinal[v.source] = idx
		h.Nodes = append(h.Nodes, Node{
			Name:        names.unique(src.Name, idx),
			Source:      v.source,
			Parent:      v.parent,
			Translation: src.Translation,
			Rotation:    src.Rotation,
			Scale:       src.Scale,
		})
		if v.parent >= 0 {
			h.Nodes[v.parent].Children = append(h.Nodes[v.parent].Children, idx)
		}

		for i := len(src.Children) - 1; i >= 0; i-- {
			c := src.Children[i]
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("%w: node %d %q has child %d out of range", ErrMalformedHierarchy, v.source, src.Name, c)
			}
			if nodes[c].Parent != v.source {
				return nil, fmt.Errorf("%w: node %d %q listed under %d but declares parent %d",
					ErrMalformedHierarchy, c, nodes[c].Name, v.source, nodes[c].Parent)
			}
			stack = append(stack, visit{source: c, parent: idx})
		}
	}

	for i, final := range h.toFinal {
		if final < 0 {
			return nil, fmt.Errorf("%w: node %d %q declares parent %d which was never visited",
				ErrMalformedHierarchy, i, nodes[i].Name, nodes[i].Parent)
		}
	}

	return h, nil
}

// nameSet hands out unique node names by appending a counter.
type nameSet struct {
	used map[string]bool
	next map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]bool), next: make(map[string]int)}
}

func (s *nameSet) claim(name string) {
	s.used[name] = true
}

func (s *nameSet) unique(name string, index int) string {
	if name == "" {
		name = "Node" + strconv.Itoa(index)
	}
	if !s.used[name] {
		s.used[name] = true
		return name
	}
	for n := s.next[name] + 1; ; n++ {
		candidate := name + strconv.Itoa(n)
		if !s.used[candidate] {
			s.used[candidate] = true
			s.next[name] = n
			return candidate
		}
	}
}
