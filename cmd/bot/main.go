package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"damage-vision/config"
	telegram "damage-vision/internal/api"
	"damage-vision/internal/container"
	"damage-vision/internal/infrastructure/gemini"
	"damage-vision/internal/infrastructure/storage"
	"damage-vision/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}

	// Собираем сервисы приложения
	appContainer := container.New(
		storage.NewMemoryUserRepository(),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		vision.NewRenderer(),
		storage.NewVisualStore(cfg.VisualTempDir),
	)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Bot is running...")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot error: %v", err)
	}
}
