package models

import "testing"

func TestHistoryItemPersistable(t *testing.T) {
	tests := []struct {
		name string
		item HistoryItem
		want bool
	}{
		{name: "text", item: HistoryItem{Kind: KindText, Text: "hello"}, want: true},
		{name: "html only", item: HistoryItem{Kind: KindText, HTML: "<b>x</b>"}, want: true},
		{name: "empty text", item: HistoryItem{Kind: KindText}, want: false},
		{name: "stored blob", item: HistoryItem{Kind: KindImage, BlobID: "b1"}, want: true},
		{name: "pending blob", item: HistoryItem{Kind: KindImage, BlobID: "b1", Pending: true}, want: false},
		{name: "failed with fallback", item: HistoryItem{Kind: KindFile, BlobID: "b1", Error: true, DataURL: "data:x"}, want: true},
		{name: "failed without fallback", item: HistoryItem{Kind: KindFile, BlobID: "b1", Error: true}, want: false},
		{name: "empty file", item: HistoryItem{Kind: KindFile}, want: false},
		{name: "unknown kind", item: HistoryItem{Kind: "video", BlobID: "b1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Persistable(); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHistoryItemStripped(t *testing.T) {
	item := HistoryItem{ID: "a", Kind: KindImage, BlobID: "b", Pending: true, Error: true, Expanded: true, Missing: true}
	got := item.Stripped()
	if got.Pending || got.Error || got.Expanded || got.Missing {
		t.Fatalf("expected transient flags cleared, got %#v", got)
	}
	if got.ID != "a" || got.BlobID != "b" {
		t.Fatalf("expected identity preserved, got %#v", got)
	}
	if !item.Pending {
		t.Fatal("expected original to be untouched")
	}
}

func TestTextCandidateEmpty(t *testing.T) {
	if !(TextCandidate{}).Empty() {
		t.Fatal("expected zero candidate to be empty")
	}
	if (TextCandidate{Plain: " "}).Empty() {
		t.Fatal("expected whitespace candidate to be non-empty")
	}
	if (TextCandidate{HTML: "<i>x</i>"}).Empty() {
		t.Fatal("expected html candidate to be non-empty")
	}
}
