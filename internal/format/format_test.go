package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID   string   `json:"id" yaml:"id"`
	Tags []string `json:"tags" yaml:"tags"`
}

func TestFormatters(t *testing.T) {
	payload := sample{ID: "a", Tags: []string{"x"}}

	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got := buf.String(); got != "{\"id\":\"a\",\"tags\":[\"x\"]}\n" {
		t.Fatalf("unexpected json: %q", got)
	}

	buf.Reset()
	if err := (YAMLFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if got := buf.String(); got != "id: a\ntags:\n  - x\n" {
		t.Fatalf("unexpected yaml: %q", got)
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "json", "YAML", "yml"} {
		if _, err := ForName(name); err != nil {
			t.Fatalf("ForName(%q): %v", name, err)
		}
	}
	if _, err := ForName("xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}
