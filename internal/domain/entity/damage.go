package entity

import (
	"encoding/json"
	"image"
)

// BoxScale шкала нормализованных координат, в которой модель возвращает рамки.
const BoxScale = 1000.0

// StandardPartLabels стандартные названия деталей, которые просим использовать модель.
var StandardPartLabels = []string{
	"headlight", "mirror", "windshield", "fog_light", "mudguard", "bumper", "door", "hood", "trunk", "wheel", "grille", "fender", "engine_compartment",
	"Quarter-panel", "Front-wheel", "Back-window", "Front-door", "Rocker-panel", "Front-window", "Back-door", "Back-wheel", "Back-windshield",
	"Tail-light", "License-plate", "Front-bumper", "Back-bumper", "Roof",
}

// StandardDamageTypes стандартные типы повреждений.
var StandardDamageTypes = []string{
	"Dent", "Scratch", "Broken part", "Paint chip", "Missing part", "Flaking", "Corrosion", "Cracked",
}

// Box рамка в формате [ymin, xmin, ymax, xmax], нормализованная к 0–1000.
type Box [4]float64

// ToPixels переводит рамку в пиксели изображения w×h.
// Оси считаются независимо, результат отбрасывает дробную часть.
func (b Box) ToPixels(width, height int) image.Rectangle {
	ymin, xmin, ymax, xmax := b[0], b[1], b[2], b[3]
	return image.Rectangle{
		Min: image.Point{X: scale(xmin, width), Y: scale(ymin, height)},
		Max: image.Point{X: scale(xmax, width), Y: scale(ymax, height)},
	}
}

func scale(v float64, dim int) int {
	return int(v / BoxScale * float64(dim))
}

// DamagePart одно найденное повреждение детали.
type DamagePart struct {
	Label      string
	DamageType string
	Box        Box
	HasBox     bool // false, если box_2d отсутствует или не из 4 чисел
	Conf       float64
}

// Caption текст подписи над рамкой.
func (p DamagePart) Caption() string {
	return p.DamageType + " - " + p.Label
}

// PartFromRaw строит DamagePart из сырого объекта ответа модели.
// Некорректные поля не считаются ошибкой: они просто остаются пустыми.
func PartFromRaw(raw any) DamagePart {
	obj, ok := raw.(map[string]any)
	if !ok {
		return DamagePart{}
	}

	part := DamagePart{
		Label:      stringField(obj, "label"),
		DamageType: stringField(obj, "damage_type"),
	}
	if c, ok := toFloat(obj["conf"]); ok {
		part.Conf = c
	}

	coords, ok := obj["box_2d"].([]any)
	if !ok || len(coords) != len(part.Box) {
		return part
	}
	for i, c := range coords {
		v, ok := toFloat(c)
		if !ok {
			return part
		}
		part.Box[i] = v
	}
	part.HasBox = true
	return part
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
