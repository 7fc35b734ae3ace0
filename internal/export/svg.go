// Package export writes frames, canvases and trajectories as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/verlet/internal/analysis"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
	"github.com/san-kum/verlet/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

// CanvasToSVG draws every lit braille dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()

	var sb strings.Builder
	header(&sb, float64(dw)*scale, float64(dh)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FrameToSVG draws the front view of a frame inside world bounds. Colours
// and cuboid particle shapes come from cache when it is given.
func FrameToSVG(f *sim.Frame, b dynamo.Bounds, cache *spawn.ResourceCache, pxPerUnit float64) string {
	if f == nil {
		return ""
	}
	halfX, top := b.X.Half(), b.Y.Extent
	w, h := 2*halfX*pxPerUnit, top*pxPerUnit
	sx := func(x float64) float64 { return (x + halfX) * pxPerUnit }
	sy := func(y float64) float64 { return (top - y) * pxPerUnit }
	fill := func(hd dynamo.Handle, fallback string) string {
		if cache == nil {
			return fallback
		}
		m, ok := cache.LookupMaterial(hd)
		if !ok {
			return fallback
		}
		return string(viz.MaterialColor(m))
	}

	var sb strings.Builder
	header(&sb, w, h)
	fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333"/>`+"\n", h, w, h)

	pos := make(map[dynamo.ParticleID][2]float64, len(f.Particles))
	for _, p := range f.Particles {
		pos[p.ID] = [2]float64{sx(p.Position.X()), sy(p.Position.Y())}
	}
	for _, st := range f.Sticks {
		a, okA := pos[st.P1]
		c, okC := pos[st.P2]
		if !okA || !okC {
			continue
		}
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"/>`+"\n",
			a[0], a[1], c[0], c[1], fill(st.Material, "#b4b4b4"), max(st.Thickness*pxPerUnit, 1))
	}
	for _, p := range f.Particles {
		xy := pos[p.ID]
		r := max(p.Size*pxPerUnit, 1)
		if cache != nil {
			if m, ok := cache.LookupMesh(p.Mesh); ok && m == spawn.MeshCuboid {
				fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
					xy[0]-r, xy[1]-r, 2*r, 2*r, fill(p.Material, "#ffffff"))
				continue
			}
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			xy[0], xy[1], r, fill(p.Material, "#ffffff"))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG draws points as a polyline with 10% padding.
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
