package analysis

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Point is one sample of a 2D projection.
type Point struct{ X, Y float64 }

// Trajectory projects a recorded particle path onto two axes
// (0=x, 1=y, 2=z).
func Trajectory(path []mgl64.Vec3, xAxis, yAxis int) []Point {
	if xAxis < 0 || xAxis > 2 || yAxis < 0 || yAxis > 2 {
		return nil
	}
	pts := make([]Point, len(path))
	for i, p := range path {
		pts[i] = Point{X: p[xAxis], Y: p[yAxis]}
	}
	return pts
}

// FloorContacts returns the samples at which the path came down through
// height y. The crossing point is linearly interpolated.
func FloorContacts(path []mgl64.Vec3, y float64) []mgl64.Vec3 {
	var out []mgl64.Vec3
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		if a.Y() > y && b.Y() <= y {
			frac := (a.Y() - y) / (a.Y() - b.Y())
			out = append(out, a.Add(b.Sub(a).Mul(frac)))
		}
	}
	return out
}

// TrajectoryToASCII draws points scaled to the canvas with 10% padding and
// axes where they cross the visible area.
func TrajectoryToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := blank(width, height)
	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}
	return render(canvas)
}
