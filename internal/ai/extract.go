package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when no extraction strategy yields a decodable JSON
// object.
var ErrNoJSON = errors.New("no JSON object found in model output")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON locates a JSON object inside free-form model output and decodes
// it into out. Models wrap structured answers in markdown fences or prose, so
// candidates are tried in a fixed order: fenced code block, outermost brace
// pair, whole text.
func ExtractJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoJSON
	}

	for _, candidate := range jsonCandidates(text) {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return nil
		}
	}

	return ErrNoJSON
}

func jsonCandidates(text string) []string {
	candidates := make([]string, 0, 3)

	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		candidates = append(candidates, match[1])
	}

	if start := strings.Index(text, "{"); start != -1 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	return append(candidates, text)
}

// CoerceInt converts a loosely typed JSON value into an int. Models emit
// scores as numbers, numeric strings, or floats interchangeably.
func CoerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(trimmed); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// CoerceString converts a loosely typed JSON value into a trimmed string.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
