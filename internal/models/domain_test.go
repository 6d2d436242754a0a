package models

import "testing"

func TestParseItemKind(t *testing.T) {
	got, err := ParseItemKind(" IMAGE ")
	if err != nil {
		t.Fatalf("parse kind: %v", err)
	}
	if got != KindImage {
		t.Fatalf("expected %q, got %q", KindImage, got)
	}

	if _, err := ParseItemKind("video"); err == nil {
		t.Fatal("expected invalid kind error")
	}
	if _, err := ParseItemKind("  "); err == nil {
		t.Fatal("expected missing kind error")
	}
}

func TestMediaTypeHelpers(t *testing.T) {
	tests := []struct {
		raw   string
		top   string
		sub   string
		image bool
	}{
		{raw: "image/png", top: "image", sub: "png", image: true},
		{raw: " Image/SVG+XML; charset=utf-8", top: "image", sub: "svg+xml", image: true},
		{raw: "text/html", top: "text", sub: "html"},
		{raw: "application/pdf", top: "application", sub: "pdf"},
		{raw: "garbage", top: "", sub: ""},
		{raw: "", top: "", sub: ""},
	}

	for _, tt := range tests {
		if got := MediaTopLevel(tt.raw); got != tt.top {
			t.Fatalf("MediaTopLevel(%q): expected %q, got %q", tt.raw, tt.top, got)
		}
		if got := MediaSubtype(tt.raw); got != tt.sub {
			t.Fatalf("MediaSubtype(%q): expected %q, got %q", tt.raw, tt.sub, got)
		}
		if got := IsImageMIME(tt.raw); got != tt.image {
			t.Fatalf("IsImageMIME(%q): expected %v, got %v", tt.raw, tt.image, got)
		}
	}
}
