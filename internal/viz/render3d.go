package viz

import (
	"math"
	"sort"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Camera projects enclosure coordinates, centered on the enclosure, onto
// the canvas.
type Camera struct {
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 4, RotX: -0.4, RotY: 0.6, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint rotates p about the x, y and z axes in turn.
func (c *Camera) RotatePoint(p dynamo.Vec3) dynamo.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// Project maps a point already normalized to roughly [-0.5, 0.5]^3 to
// sub-pixel coordinates. It returns x, y, depth, the perspective scale and
// whether the point is in front of the camera.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) (int, int, float64, float64, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	if rot[2] >= c.Distance-0.1 {
		return 0, 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot[2])
	pScale := math.Min(float64(sw), float64(sh)) * 0.9
	sx := int(rot[0]*scale*pScale) + sw/2
	sy := int(-rot[1]*scale*pScale) + sh/2
	return sx, sy, rot[2], scale * pScale, true
}

// normalizer maps enclosure coordinates into a unit cube centered at the
// origin, preserving aspect ratio.
type normalizer struct {
	center dynamo.Vec3
	scale  float64
}

func newNormalizer(w dynamo.Walls) normalizer {
	n := normalizer{scale: 1}
	span := 0.0
	for k := 0; k < 3; k++ {
		n.center[k] = (w[k][0] + w[k][1]) / 2
		span = math.Max(span, w[k][1]-w[k][0])
	}
	if span > 0 {
		n.scale = 1 / span
	}
	return n
}

func (n normalizer) apply(p dynamo.Vec3) dynamo.Vec3 { return p.Sub(n.center).Scale(n.scale) }

type Edge struct {
	Start, End dynamo.Vec3
}

// BoxEdges returns the twelve edges of the enclosure.
func BoxEdges(w dynamo.Walls) []Edge {
	v := make([]dynamo.Vec3, 8)
	for i := range v {
		v[i] = dynamo.Vec3{w[0][i&1], w[1][(i>>1)&1], w[2][(i>>2)&1]}
	}
	idx := [][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {0, 2}, {1, 3}, {4, 6}, {5, 7}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	edges := make([]Edge, len(idx))
	for i, e := range idx {
		edges[i] = Edge{v[e[0]], v[e[1]]}
	}
	return edges
}

type projectedSphere struct {
	x, y, r int
	depth   float64
}

// Render3D draws the enclosure and the particles, far particles first.
func Render3D(c *Canvas, walls dynamo.Walls, pos []dynamo.Vec3, radius []float64, cam *Camera) {
	if c == nil || cam == nil {
		return
	}
	sw, sh := c.SubWidth(), c.SubHeight()
	norm := newNormalizer(walls)

	for _, e := range BoxEdges(walls) {
		x1, y1, _, _, v1 := cam.Project(norm.apply(e.Start), sw, sh)
		x2, y2, _, _, v2 := cam.Project(norm.apply(e.End), sw, sh)
		if v1 && v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}

	spheres := make([]projectedSphere, 0, len(pos))
	for i, p := range pos {
		x, y, depth, scale, ok := cam.Project(norm.apply(p), sw, sh)
		if !ok {
			continue
		}
		r := 0
		if i < len(radius) {
			r = int(radius[i] * norm.scale * cam.Zoom * scale)
		}
		spheres = append(spheres, projectedSphere{x, y, r, depth})
	}
	sort.Slice(spheres, func(i, j int) bool { return spheres[i].depth < spheres[j].depth })
	for _, s := range spheres {
		c.DrawCircle(s.x, s.y, s.r)
	}
}

// Render2D draws the projection of the particles onto axes ax and ay,
// with the enclosure as the canvas border.
func Render2D(c *Canvas, walls dynamo.Walls, pos []dynamo.Vec3, radius []float64, ax, ay int) {
	sw, sh := c.SubWidth(), c.SubHeight()
	c.DrawRect(0, 0, sw-1, sh-1)

	spanX := walls[ax][1] - walls[ax][0]
	spanY := walls[ay][1] - walls[ay][0]
	if spanX <= 0 || spanY <= 0 {
		return
	}
	sx := float64(sw-3) / spanX
	sy := float64(sh-3) / spanY
	for i, p := range pos {
		x := 1 + int((p[ax]-walls[ax][0])*sx)
		y := sh - 2 - int((p[ay]-walls[ay][0])*sy)
		r := 0
		if i < len(radius) {
			r = int(radius[i] * math.Min(sx, sy))
		}
		c.DrawCircle(x, y, r)
	}
}
