package container

import (
	app "damage-vision/internal/application"
	"damage-vision/internal/domain/port"
)

type Container struct {
	UserService      *app.UserService
	DetectionService *app.DetectionService
}

func New(userRepo port.UserRepository, analyzer port.DamageAnalyzer, renderer port.DamageRenderer, visuals port.VisualStore) *Container {
	return &Container{
		UserService:      app.NewUserService(userRepo),
		DetectionService: app.NewDetectionService(analyzer, renderer, visuals),
	}
}
