package ai

import (
	"testing"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object passes through",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "plain code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding prose",
			input: `Here is the result: {"a": 1} hope that helps!`,
			want:  `{"a": 1}`,
		},
		{
			name:  "fence with leading explanation",
			input: "Sure, the entities are:\n```json\n{\"entities\": []}\n```\nLet me know if you need more.",
			want:  `{"entities": []}`,
		},
		{
			name:  "no json at all returned unchanged",
			input: "  no structured output  ",
			want:  "no structured output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONBlock(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	tests := []struct {
		name  string
		input string
		want  payload
	}{
		{
			name:  "clean json",
			input: `{"label": "acme", "count": 2}`,
			want:  payload{Label: "acme", Count: 2},
		},
		{
			name:  "double-encoded string",
			input: `"{\"label\": \"acme\", \"count\": 2}"`,
			want:  payload{Label: "acme", Count: 2},
		},
		{
			name:  "fenced with prose",
			input: "The answer:\n```json\n{\"label\": \"acme\", \"count\": 2}\n```",
			want:  payload{Label: "acme", Count: 2},
		},
		{
			name:  "malformed but repairable",
			input: `{label: 'acme', count: 2,}`,
			want:  payload{Label: "acme", Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	t.Run("hopeless input fails", func(t *testing.T) {
		var got payload
		if err := UnmarshalFlexible("", &got); err == nil {
			t.Fatal("expected an error for empty input")
		}
	})
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Acme Corp  ", "Acme Corp"},
		{"Acme\nCorp", "Acme Corp"},
		{"Acme\r\n  Corp", "Acme Corp"},
		{"Acme    Corp", "Acme Corp"},
		{"   ", ""},
		{"Jane Doe", "Jane Doe"},
	}

	for _, tt := range tests {
		if got := NormalizeLabel(tt.input); got != tt.want {
			t.Fatalf("NormalizeLabel(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
