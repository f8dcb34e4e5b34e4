package entity

import (
	"encoding/base64"
	"fmt"
)

// UnknownValue подставляется, если модель не вернула марку или модель автомобиля.
const UnknownValue = "Unknown"

// Report итог анализа одного снимка.
type Report struct {
	Brand    string         // марка автомобиля для подписи
	Model    string         // модель автомобиля для подписи
	Parts    []DamagePart   // разобранные повреждения
	RawParts []any          // parts как их прислала модель
	Raw      map[string]any // весь разобранный ответ модели без изменений
	Visual   []byte         // PNG с подсветкой; nil, если сохранить не удалось
	Width    int            // ширина исходного изображения
	Height   int            // высота исходного изображения
}

// NewReport собирает отчёт из разобранного ответа модели.
func NewReport(raw map[string]any, rawParts []any) *Report {
	if rawParts == nil {
		rawParts = []any{}
	}
	parts := make([]DamagePart, 0, len(rawParts))
	for _, p := range rawParts {
		parts = append(parts, PartFromRaw(p))
	}
	return &Report{
		Brand:    textOrUnknown(raw["brand"]),
		Model:    textOrUnknown(raw["model"]),
		Parts:    parts,
		RawParts: rawParts,
		Raw:      raw,
	}
}

func textOrUnknown(v any) string {
	switch t := v.(type) {
	case nil:
		return UnknownValue
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// rawOrUnknown отдаёт значение ключа как есть (включая null и числа),
// а "Unknown" только при отсутствии ключа.
func rawOrUnknown(raw map[string]any, key string) any {
	if v, ok := raw[key]; ok {
		return v
	}
	return UnknownValue
}

// SuccessEnvelope JSON-ответ при успешном анализе.
type SuccessEnvelope struct {
	NumDetections      int            `json:"num_detections"`
	VisualOutputBase64 *string        `json:"visual_output_base64"`
	Brand              any            `json:"brand"`
	Model              any            `json:"model"`
	Parts              []any          `json:"parts"`
	RawDetails         map[string]any `json:"raw_details"`
}

// ErrorEnvelope JSON-ответ при любой ошибке.
type ErrorEnvelope struct {
	Error              string  `json:"error"`
	Details            string  `json:"details"`
	VisualOutputBase64 *string `json:"visual_output_base64"`
}

// UsageEnvelope JSON-ответ, когда путь к изображению не передан.
type UsageEnvelope struct {
	Error string `json:"error"`
}

// Envelope переводит отчёт в JSON-ответ.
func (r *Report) Envelope() SuccessEnvelope {
	var visual *string
	if r.Visual != nil {
		b64 := base64.StdEncoding.EncodeToString(r.Visual)
		visual = &b64
	}
	return SuccessEnvelope{
		NumDetections:      len(r.RawParts),
		VisualOutputBase64: visual,
		Brand:              rawOrUnknown(r.Raw, "brand"),
		Model:              rawOrUnknown(r.Raw, "model"),
		Parts:              r.RawParts,
		RawDetails:         r.Raw,
	}
}
