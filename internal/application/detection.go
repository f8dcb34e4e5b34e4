package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// Outcome результат одного запуска: либо отчёт, либо ошибка.
type Outcome struct {
	Report *entity.Report
	Err    *DetectionError
}

// Failed сообщает, завершился ли запуск ошибкой.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Envelope возвращает JSON-ответ для печати.
func (o Outcome) Envelope() any {
	if o.Err != nil {
		return entity.ErrorEnvelope{
			Error:   o.Err.Error(),
			Details: o.Err.Details(),
		}
	}
	return o.Report.Envelope()
}

// DetectionService проводит снимок через модель и отрисовку повреждений.
type DetectionService struct {
	analyzer port.DamageAnalyzer
	renderer port.DamageRenderer
	visuals  port.VisualStore
	prompt   string
}

// NewDetectionService создаёт сервис анализа повреждений.
func NewDetectionService(analyzer port.DamageAnalyzer, renderer port.DamageRenderer, visuals port.VisualStore) *DetectionService {
	return &DetectionService{
		analyzer: analyzer,
		renderer: renderer,
		visuals:  visuals,
		prompt:   DamagePrompt,
	}
}

// Detect читает снимок с диска и анализирует его.
func (s *DetectionService) Detect(ctx context.Context, path string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Outcome{Err: newError(KindFileNotFound, fmt.Errorf("image not found: %s", path))}
		}
		return Outcome{Err: newError(KindUnclassified, fmt.Errorf("read image: %w", err))}
	}
	return s.DetectImage(ctx, data)
}

// DetectImage анализирует снимок, переданный байтами. Паника внутри
// превращается в ошибку KindUnclassified.
func (s *DetectionService) DetectImage(ctx context.Context, data []byte) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: newError(KindUnclassified, fmt.Errorf("panic: %v", r))}
		}
	}()

	report, err := s.detect(ctx, data)
	if err != nil {
		var de *DetectionError
		if !errors.As(err, &de) {
			de = newError(KindUnclassified, err)
		}
		return Outcome{Err: de}
	}
	return Outcome{Report: report}
}

func (s *DetectionService) detect(ctx context.Context, data []byte) (*entity.Report, error) {
	if s.analyzer == nil || s.renderer == nil || s.visuals == nil {
		return nil, errors.New("detection service is not configured")
	}

	canvas, err := s.renderer.Decode(data)
	if err != nil {
		return nil, newError(KindImageDecode, err)
	}
	defer canvas.Close()
	size := canvas.Size()

	text, err := s.analyzer.Analyze(ctx, data, s.prompt)
	if err != nil {
		return nil, err
	}

	raw, rawParts, err := parseModelResponse(text)
	if err != nil {
		return nil, newError(KindResponseParse, err)
	}

	report := entity.NewReport(raw, rawParts)
	report.Width, report.Height = size.X, size.Y

	for _, part := range report.Parts {
		if !part.HasBox {
			continue
		}
		canvas.DrawDamage(part.Box.ToPixels(size.X, size.Y), part.Caption())
	}

	visual, err := s.visuals.Persist(canvas.Save)
	if err != nil {
		log.Printf("Visual output skipped: %v", newError(KindEncodeIO, err))
	}
	report.Visual = visual

	return report, nil
}
