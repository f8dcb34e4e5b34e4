package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"damage-vision/internal/domain/port"
)

// VisualStore кладёт картинку с подсветкой во временный файл с уникальным именем,
// чтобы параллельные запуски не затирали друг друга.
type VisualStore struct {
	Dir string
}

// NewVisualStore создаёт хранилище во временном каталоге dir (если пусто, os.TempDir()).
func NewVisualStore(dir string) *VisualStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &VisualStore{Dir: dir}
}

// NewPath возвращает новый путь вида <dir>/vis_<uuid>.png.
func (s *VisualStore) NewPath() string {
	return filepath.Join(s.Dir, "vis_"+uuid.NewString()+".png")
}

// Persist передаёт save временный путь, затем читает файл и удаляет его.
func (s *VisualStore) Persist(save func(path string) error) ([]byte, error) {
	path := s.NewPath()
	defer os.Remove(path)

	if err := save(path); err != nil {
		return nil, fmt.Errorf("write visual: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read visual: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("read visual: empty file")
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove visual: %w", err)
	}

	return data, nil
}

var _ port.VisualStore = (*VisualStore)(nil)
