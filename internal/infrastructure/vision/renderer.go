//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"damage-vision/internal/domain/port"
)

// Renderer рисует повреждения средствами image/draw, без OpenCV.
type Renderer struct {
	Style Style
}

// NewRenderer создаёт рендерер со стилем по умолчанию.
func NewRenderer() *Renderer {
	return &Renderer{Style: DefaultStyle()}
}

// Decode декодирует JPEG/PNG/GIF/BMP/WebP в RGBA-холст.
func (r *Renderer) Decode(imageData []byte) (port.Canvas, error) {
	if len(imageData) == 0 {
		return nil, errors.New("empty image")
	}
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, errors.New("empty image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	return &canvas{img: dst, style: r.Style}, nil
}

type canvas struct {
	img   *image.RGBA
	style Style
}

func (c *canvas) Size() image.Point {
	return c.img.Bounds().Size()
}

// DrawDamage рисует контур рамки, залитую плашку над ней и текст подписи.
func (c *canvas) DrawDamage(rect image.Rectangle, caption string) {
	rect = rect.Canon()
	strokeRect(c.img, rect, c.style.BoxColor, c.style.Thickness)

	face := basicfont.Face7x13
	w := font.MeasureString(face, caption).Ceil()
	strip := image.Rect(rect.Min.X, rect.Min.Y-c.style.LabelHeight, rect.Min.X+w, rect.Min.Y)
	draw.Draw(c.img, strip, image.NewUniform(c.style.BoxColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(c.style.TextColor),
		Face: face,
		Dot:  fixed.P(rect.Min.X, rect.Min.Y-c.style.TextBaseline),
	}
	d.DrawString(caption)
}

func (c *canvas) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, c.img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func (c *canvas) Close() {}

// strokeRect рисует контур толщиной thickness внутрь от границ rect.
func strokeRect(img draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	u := image.NewUniform(col)
	for i := 0; i < thickness; i++ {
		r := image.Rect(rect.Min.X+i, rect.Min.Y+i, rect.Max.X-i, rect.Max.Y-i)
		if r.Dx() <= 0 || r.Dy() <= 0 {
			return
		}
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	}
}

var _ port.DamageRenderer = (*Renderer)(nil)
