package chartengine

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// AnnotateImage stamps a small caption onto the bottom-left corner of a
// rendered chart. Exports use it to tag the artifact with its source
// file and render origin.
func AnnotateImage(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	const pad = 6
	face := basicfont.Face7x13
	fg := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	d := &font.Drawer{Dst: out, Src: fg, Face: face}
	width := d.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6

	// dark backing rect so the caption stays legible on any palette
	bg := image.NewUniform(color.RGBA{A: 200})
	draw.Draw(out, image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+width+pad, y+pad/2), bg, image.Point{}, draw.Over)

	// shadow first, then the text itself
	shadow := &font.Drawer{
		Dst: out, Src: image.NewUniform(color.RGBA{A: 180}), Face: face,
		Dot: fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)},
	}
	shadow.DrawString(text)
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d.DrawString(text)
	return out
}
