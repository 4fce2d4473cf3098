// Package animation resamples source animation curves at a fixed frame rate.
package animation

import (
	gomath "math"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

// DefaultFrameRate is used when the requested rate is not positive.
const DefaultFrameRate = 30

// StateDefault is the pre and post state written for every clip.
const StateDefault = "Default"

// Vec3Key is a position or scale keyframe.
type Vec3Key struct {
	Time  float32
	Value math.Vec3
}

// QuatKey is a rotation keyframe.
type QuatKey struct {
	Time  float32
	Value math.Quat
}

// Channel holds the keys of one node. No key list is ever empty.
type Channel struct {
	Node      int // final hierarchy index
	Positions []Vec3Key
	Rotations []QuatKey
	Scales    []Vec3Key
}

// Clip is a resampled animation.
type Clip struct {
	Name           string
	Duration       float32
	TicksPerSecond float32
	PreState       string
	PostState      string
	Channels       []Channel
}

// FrameCount returns the number of samples covering duration at rate,
// including the sample at t=0.
func FrameCount(duration, rate float32) int {
	if duration <= 0 {
		return 1
	}
	return int(gomath.Floor(float64(duration)*float64(rate)+1e-4)) + 1
}

// Sample resamples every clip. Channels that target nodes outside the
// hierarchy are skipped with a warning.
func Sample(clips []scene.Clip, h *hierarchy.Hierarchy, rate float32, log *zap.Logger) []Clip {
	if log == nil {
		log = zap.NewNop()
	}
	if rate <= 0 {
		rate = DefaultFrameRate
	}

	out := make([]Clip, 0, len(clips))
	for i := range clips {
		out = append(out, sampleClip(&clips[i], i, h, rate, log))
	}
	return out
}

func sampleClip(src *scene.Clip, index int, h *hierarchy.Hierarchy, rate float32, log *zap.Logger) Clip {
	name := src.Name
	if name == "" {
		name = "Unnamed " + strconv.Itoa(index+1)
	}
	duration := src.Duration()
	frames := FrameCount(duration, rate)

	clip := Clip{
		Name:           name,
		Duration:       duration,
		TicksPerSecond: rate,
		PreState:       StateDefault,
		PostState:      StateDefault,
	}

	// Several source channels may drive the same node.
	merged := make(map[int]*scene.NodeAnimation)
	var order []int
	for _, ch := range src.Channels {
		final, ok := h.Index(ch.Node)
		if !ok {
			log.Warn("Skipped animation channel for unknown node",
				zap.String("clip", name),
				zap.Int("node", ch.Node))
			continue
		}
		m, seen := merged[final]
		if !seen {
			m = &scene.NodeAnimation{Node: ch.Node}
			merged[final] = m
			order = append(order, final)
		}
		if ch.Translation != nil {
			m.Translation = ch.Translation
		}
		if ch.Rotation != nil {
			m.Rotation = ch.Rotation
		}
		if ch.Scale != nil {
			m.Scale = ch.Scale
		}
	}

	for _, final := range order {
		clip.Channels = append(clip.Channels, sampleChannel(merged[final], final, h.Nodes[final], frames, rate))
	}
	return clip
}

func sampleChannel(src *scene.NodeAnimation, final int, rest hierarchy.Node, frames int, rate float32) Channel {
	ch := Channel{Node: final}
	ch.Positions = sampleVec3(src.Translation, rest.Translation, frames, rate)
	ch.Scales = sampleVec3(src.Scale, rest.Scale, frames, rate)

	if !bound(src.Rotation) {
		ch.Rotations = []QuatKey{{Time: 0, Value: rest.Rotation}}
		return ch
	}
	ch.Rotations = make([]QuatKey, frames)
	for i := range ch.Rotations {
		t := frameTime(i, rate)
		ch.Rotations[i] = QuatKey{Time: t, Value: src.Rotation.SampleQuat(t)}
	}
	return ch
}

func sampleVec3(c *scene.Curve, rest math.Vec3, frames int, rate float32) []Vec3Key {
	if !bound(c) {
		return []Vec3Key{{Time: 0, Value: rest}}
	}
	keys := make([]Vec3Key, frames)
	for i := range keys {
		t := frameTime(i, rate)
		keys[i] = Vec3Key{Time: t, Value: c.SampleVec3(t)}
	}
	return keys
}

func bound(c *scene.Curve) bool {
	return c != nil && c.Len() > 0
}

func frameTime(i int, rate float32) float32 {
	return float32(float64(i) / float64(rate))
}
