package port

import (
	"context"

	"damage-vision/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// RememberReport сохраняет последний отчёт пользователя
	RememberReport(ctx context.Context, userID int64, report *entity.Report) error
}
