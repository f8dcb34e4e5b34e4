//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"damage-vision/internal/domain/port"
)

const (
	fontFace  = gocv.FontHersheySimplex
	fontScale = 0.5
)

// Renderer рисует повреждения через OpenCV.
type Renderer struct {
	Style Style
}

// NewRenderer создаёт рендерер со стилем по умолчанию.
func NewRenderer() *Renderer {
	return &Renderer{Style: DefaultStyle()}
}

// Decode превращает байты изображения в gocv.Mat.
func (r *Renderer) Decode(imageData []byte) (port.Canvas, error) {
	// при пустом буфере IMDecode отдаёт Mat с nil-указателем, Empty() на нём падает
	if len(imageData) == 0 {
		return nil, errors.New("empty image")
	}
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("failed to decode image")
	}
	return &canvas{mat: mat, style: r.Style}, nil
}

type canvas struct {
	mat   gocv.Mat
	style Style
}

func (c *canvas) Size() image.Point {
	return image.Pt(c.mat.Cols(), c.mat.Rows())
}

// DrawDamage рисует рамку, залитую плашку над ней и подпись.
func (c *canvas) DrawDamage(rect image.Rectangle, caption string) {
	gocv.Rectangle(&c.mat, rect, c.style.BoxColor, c.style.Thickness)

	size := gocv.GetTextSize(caption, fontFace, fontScale, 1)
	strip := image.Rect(rect.Min.X, rect.Min.Y-c.style.LabelHeight, rect.Min.X+size.X, rect.Min.Y)
	gocv.Rectangle(&c.mat, strip, c.style.BoxColor, -1)

	org := image.Pt(rect.Min.X, rect.Min.Y-c.style.TextBaseline)
	gocv.PutText(&c.mat, caption, org, fontFace, fontScale, c.style.TextColor, 1)
}

func (c *canvas) Save(path string) error {
	if !gocv.IMWrite(path, c.mat) {
		return errors.New("imwrite failed")
	}
	return nil
}

func (c *canvas) Close() {
	c.mat.Close()
}

var _ port.DamageRenderer = (*Renderer)(nil)
