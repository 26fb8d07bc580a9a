package config

import (
	"encoding/json"
	"testing"
)

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if schema.Title != "DittoSync Configuration" {
		t.Errorf("Expected title 'DittoSync Configuration', got %q", schema.Title)
	}

	for _, key := range []string{"logging", "list_file", "source", "extractor", "target", "engine", "metrics"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("Expected property %q in schema", key)
		}
	}
}
