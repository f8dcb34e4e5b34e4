package port

// VisualStore временное хранилище картинки с подсветкой
type VisualStore interface {
	// Persist вызывает save с временным путём, читает записанный файл и удаляет его
	Persist(save func(path string) error) ([]byte, error)
}
