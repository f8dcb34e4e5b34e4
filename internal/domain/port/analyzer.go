package port

import "context"

// DamageAnalyzer интерфейс удалённой мультимодальной модели
type DamageAnalyzer interface {
	// Analyze отправляет изображение и промпт, возвращает текст ответа модели
	Analyze(ctx context.Context, imageData []byte, prompt string) (string, error)
}
