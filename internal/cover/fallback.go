package cover

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const fallbackSize = 1024

var (
	fallbackBackground = color.RGBA{R: 0x1A, G: 0x1A, B: 0x2E, A: 0xFF}
	fallbackAccent     = color.RGBA{R: 0xE9, G: 0x4B, B: 0x3C, A: 0xFF}
)

// fallbackGenerator draws the card directly; it backs the mock mode.
type fallbackGenerator struct{}

func (f *fallbackGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return RenderFallback(req)
}

// RenderFallback draws a plain station card so every published broadcast has
// some cover even when the image vendor is down.
func RenderFallback(req Request) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, fallbackSize, fallbackSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(fallbackBackground), image.Point{}, draw.Src)

	bar := image.Rect(0, 640, fallbackSize, 656)
	draw.Draw(img, bar, image.NewUniform(fallbackAccent), image.Point{}, draw.Src)

	name := req.Station.DisplayName
	if name == "" {
		name = req.Station.ID
	}
	drawLine(img, name, 64, 600)
	drawLine(img, strings.ToUpper(string(req.Dominant))+" EDITION", 64, 700)
	drawLine(img, req.At.Format("Monday, 2 January 2006 15:04 MST"), 64, 728)

	path := coverPath(req)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = png.Encode(out, img)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode cover: %w", err)
	}
	return path, nil
}

func drawLine(img *image.RGBA, text string, x, y int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
