package render

import (
	"sort"

	"isoengine/internal/gpu"
	"isoengine/internal/scene"
)

// batch collects quads for one frame and flushes them grouped by texture.
type batch struct {
	quads    []scene.Quad
	vertices []float32
}

func (b *batch) reset() {
	b.quads = b.quads[:0]
}

func (b *batch) add(q scene.Quad) {
	b.quads = append(b.quads, q)
}

// flush sorts by depth, keeping submission order for equal depths, and
// emits one draw per run of consecutive quads sharing a texture.
func (b *batch) flush(emit func(texture gpu.Handle, vertices []float32)) int {
	sort.SliceStable(b.quads, func(i, j int) bool {
		return b.quads[i].Depth < b.quads[j].Depth
	})

	calls := 0
	start := 0
	for i := 1; i <= len(b.quads); i++ {
		if i < len(b.quads) && b.quads[i].Texture == b.quads[start].Texture {
			continue
		}
		b.vertices = b.vertices[:0]
		for _, q := range b.quads[start:i] {
			b.vertices = appendQuad(b.vertices, q)
		}
		emit(b.quads[start].Texture.Handle(), b.vertices)
		calls++
		start = i
	}
	b.quads = b.quads[:0]
	return calls
}

func appendQuad(dst []float32, q scene.Quad) []float32 {
	x0, y0 := q.Dst[0], q.Dst[1]
	x1, y1 := x0+q.Dst[2], y0+q.Dst[3]
	u0, v0, u1, v1 := q.Src[0], q.Src[1], q.Src[2], q.Src[3]
	r, g, bl, a := q.Tint[0], q.Tint[1], q.Tint[2], q.Tint[3]

	return append(dst,
		x0, y0, u0, v0, r, g, bl, a,
		x1, y0, u1, v0, r, g, bl, a,
		x1, y1, u1, v1, r, g, bl, a,
		x0, y0, u0, v0, r, g, bl, a,
		x1, y1, u1, v1, r, g, bl, a,
		x0, y1, u0, v1, r, g, bl, a,
	)
}
