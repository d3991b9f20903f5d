package pipeline

import (
	"context"
	"image"
	"math"

	"github.com/dunamismax/borderflow/internal/domain"
)

type Transformer interface {
	Transform(ctx context.Context, input []byte, spec domain.BorderSpec) (data []byte, width, height int, err error)
}

// Geometry holds the canvas size after each stage of the transform.
// Offsets are floor-divided, so odd remainders bias toward the top/left.
type Geometry struct {
	Bordered image.Point
	Square   image.Point
	Canvas   image.Point
	Output   image.Point
}

// PlanGeometry computes stage sizes for a srcW x srcH source without
// touching pixels. Both backends build their canvases from it.
func PlanGeometry(srcW, srcH int, spec domain.BorderSpec) Geometry {
	var g Geometry
	g.Bordered = image.Pt(srcW+2*spec.Width, srcH+2*spec.Width)

	g.Square = g.Bordered
	if !spec.Aspect.IsSquare() {
		side := max(g.Bordered.X, g.Bordered.Y)
		g.Square = image.Pt(side, side)
	}

	canvasH := int(math.Round(spec.Aspect.Scale() * float64(g.Square.X)))
	g.Canvas = image.Pt(g.Square.X, max(1, canvasH))

	outH := int(math.Round(float64(g.Canvas.Y) * float64(spec.OutputWidth) / float64(g.Canvas.X)))
	g.Output = image.Pt(spec.OutputWidth, max(1, outH))
	return g
}

// SquareOffset is where the bordered image lands on the square canvas.
func (g Geometry) SquareOffset() image.Point {
	return image.Pt((g.Square.X-g.Bordered.X)/2, (g.Square.Y-g.Bordered.Y)/2)
}

// CanvasOffset is where the square stage lands on the aspect canvas.
// The square stage keeps its width, so only the vertical offset varies.
func (g Geometry) CanvasOffset() image.Point {
	return image.Pt(0, (g.Canvas.Y-g.Square.Y)/2)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
