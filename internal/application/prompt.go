package app

import (
	"fmt"
	"strings"

	"damage-vision/internal/domain/entity"
)

const promptTemplate = `Analyze this image of a vehicle.
1. Identify the vehicle brand (Make).
2. Identify the vehicle model (Name).
3. Identify any visible damages and the specific parts affected.

IMPORTANT: For the 'label' of the part, try to use one of the following standard keys if applicable:
[%s]
If the part is not in this list, use a descriptive name in English.

IMPORTANT: For 'damage_type', try to use one of these standard types:
[%s]

For each detected part/damage, provide the bounding box in [ymin, xmin, ymax, xmax] format, where coordinates are normalized to 0-1000.

Return the result in valid JSON format with this structure:
{
    "brand": "Brand Name",
    "model": "Model Name",
    "parts": [
        {
            "label": "Part Name (Standard Key if possible)",
            "damage_type": "Damage Type (Standard if possible)",
            "box_2d": [ymin, xmin, ymax, xmax],
            "conf": 0.9
        }
    ]
}
If no damage is found, return an empty list for parts.
Do not use markdown formatting (like ` + "```json" + `), just return the raw JSON string.`

// DamagePrompt фиксированный промпт для модели.
var DamagePrompt = fmt.Sprintf(promptTemplate, quoteList(entity.StandardPartLabels), quoteList(entity.StandardDamageTypes))

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
