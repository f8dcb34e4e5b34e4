package vision

import "image/color"

// Style параметры отрисовки рамок и подписей.
type Style struct {
	BoxColor     color.RGBA
	TextColor    color.RGBA
	Thickness    int // толщина контура рамки
	LabelHeight  int // высота плашки под подпись
	TextBaseline int // отступ базовой линии текста от верхней границы рамки
}

// DefaultStyle красная рамка толщиной 2 и белый текст на красной плашке высотой 20.
func DefaultStyle() Style {
	return Style{
		BoxColor:     color.RGBA{R: 255, A: 255},
		TextColor:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Thickness:    2,
		LabelHeight:  20,
		TextBaseline: 5,
	}
}
