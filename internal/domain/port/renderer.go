package port

import "image"

// DamageRenderer декодирует изображение для отрисовки повреждений
type DamageRenderer interface {
	// Decode декодирует байты изображения в холст
	Decode(imageData []byte) (Canvas, error)
}

// Canvas холст с изображением, на котором рисуются рамки
type Canvas interface {
	// Size возвращает ширину и высоту изображения в пикселях
	Size() image.Point

	// DrawDamage рисует рамку и подпись над её верхней границей
	DrawDamage(rect image.Rectangle, caption string)

	// Save сохраняет изображение в PNG по указанному пути
	Save(path string) error

	// Close освобождает ресурсы холста
	Close()
}
