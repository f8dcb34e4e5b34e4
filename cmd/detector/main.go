package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"

	"damage-vision/config"
	app "damage-vision/internal/application"
	"damage-vision/internal/container"
	"damage-vision/internal/domain/entity"
	"damage-vision/internal/infrastructure/gemini"
	"damage-vision/internal/infrastructure/storage"
	"damage-vision/internal/infrastructure/vision"
)

func main() {
	// stdout занят JSON-ответом, логи уходят в stderr
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		writeJSON(os.Stdout, entity.UsageEnvelope{Error: "No image path"})
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		cfg = &config.Config{}
	}

	appContainer := container.New(
		storage.NewMemoryUserRepository(),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		vision.NewRenderer(),
		storage.NewVisualStore(cfg.VisualTempDir),
	)

	out := appContainer.DetectionService.Detect(context.Background(), os.Args[1])
	if out.Failed() {
		log.Printf("Detection failed (%s): %v", app.KindOf(out.Err), out.Err)
	}
	writeJSON(os.Stdout, out.Envelope())
}

// writeJSON печатает ровно один JSON-документ с переводом строки.
func writeJSON(w io.Writer, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode output: %v", err)
		_ = json.NewEncoder(w).Encode(entity.ErrorEnvelope{Error: err.Error(), Details: "Unclassified: " + err.Error()})
	}
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
}
