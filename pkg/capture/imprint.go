package capture

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
)

// Imprint adds a caption band to the bottom of a PNG.
func Imprint(img []byte, caption string) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	face, err := loadFont()
	if err != nil {
		return nil, err
	}

	const padding = 20
	const borderSize = 1

	w := src.Bounds().Dx()
	h := src.Bounds().Dy() + padding*2 + borderSize
	dc := gg.NewContext(w, h)

	dc.DrawImage(src, 0, 0)

	yLine := float64(src.Bounds().Dy())
	dc.SetColor(color.Black)
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.SetLineWidth(float64(borderSize))
	dc.Stroke()
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine+borderSize, float64(w), float64(padding*2))
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetFontFace(face)
	dc.DrawStringAnchored(caption, float64(w)/2, yLine+float64(padding), 0.5, 0.35)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

var (
	fontOnce sync.Once
	fontFont *truetype.Font
	fontErr  error
)

func loadFont() (font.Face, error) {
	fontOnce.Do(func() {
		fontFont, fontErr = truetype.Parse(gomedium.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}

	return truetype.NewFace(fontFont, &truetype.Options{
		Size: 14,
	}), nil
}
