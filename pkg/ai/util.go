package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type. The schema is
// suitable for use with strict structured-output model calls.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// ExtractJSONBlock locates a JSON object inside model output that may be
// wrapped in markdown code fences or surrounding prose. It returns the
// object text, or the trimmed input unchanged when no wrapping is detected.
func ExtractJSONBlock(input string) string {
	s := strings.TrimSpace(input)

	if start := strings.Index(s, "```"); start != -1 {
		rest := s[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			lang := strings.TrimSpace(rest[:nl])
			if lang == "" || strings.EqualFold(lang, "json") {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end != -1 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	if strings.HasPrefix(s, "{") {
		return s
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// UnmarshalFlexible attempts to unmarshal JSON into the target with multiple
// fallback strategies: standard unmarshaling, double-encoded JSON strings,
// fenced or prose-wrapped objects, and finally repair of malformed JSON.
//
// Model-generated JSON rarely arrives clean, so every structured response in
// this module goes through here.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = ExtractJSONBlock(input)
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	return fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
}

// NormalizeLabel standardizes entity labels for comparisons: collapses
// whitespace and strips line breaks. Case is preserved; canonical matching is
// case-insensitive at the call sites that need it.
func NormalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.Join(strings.Fields(value), " ")
}
