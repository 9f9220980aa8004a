package tamper

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText stamps a line of text at a random position, leaving a margin so
// the text lands fully inside the image.
func (g *Generator) drawText(img *image.NRGBA, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	bounds := img.Bounds()

	textWidth := font.MeasureString(face, text).Ceil()
	maxX := bounds.Dx() - textWidth - 4
	if maxX < 4 {
		maxX = 4
	}
	maxY := bounds.Dy() - face.Height - 4
	if maxY < face.Height {
		maxY = face.Height
	}

	x := bounds.Min.X + 4 + g.rng.Intn(maxX)
	y := bounds.Min.Y + face.Height + g.rng.Intn(maxY)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

// drawRectOutline draws a rectangle border of the given thickness.
func drawRectOutline(img *image.NRGBA, r image.Rectangle, c color.NRGBA, thickness int) {
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setIfInside(img, x, r.Min.Y+t, c)
			setIfInside(img, x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setIfInside(img, r.Min.X+t, y, c)
			setIfInside(img, r.Max.X-1-t, y, c)
		}
	}
}

// drawScribble draws a jagged random walk across a region, imitating a
// handwritten signature.
func (g *Generator) drawScribble(img *image.NRGBA, region image.Rectangle, c color.NRGBA) {
	segments := 8 + g.rng.Intn(8)

	x := region.Min.X + g.rng.Intn(region.Dx())
	y := region.Min.Y + region.Dy()/2
	for i := 0; i < segments; i++ {
		nx := region.Min.X + g.rng.Intn(region.Dx())
		ny := region.Min.Y + g.rng.Intn(region.Dy())
		drawLine(img, x, y, nx, ny, c)
		x, y = nx, ny
	}
}

// drawLine draws a 2px line using integer interpolation.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := abs(dx)
	if abs(dy) > steps {
		steps = abs(dy)
	}
	if steps == 0 {
		setIfInside(img, x0, y0, c)
		return
	}

	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		setIfInside(img, x, y, c)
		setIfInside(img, x+1, y, c)
		setIfInside(img, x, y+1, c)
	}
}

func setIfInside(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
