package signature

import (
	"strings"
	"testing"

	"clipstash/internal/models"
)

func TestBatchDeterministic(t *testing.T) {
	batch := []models.Candidate{
		models.TextCandidate{Plain: "hello", HTML: "<b>hello</b>"},
		models.FileCandidate{Data: []byte("abc"), Name: "a.txt", MIME: "text/plain"},
	}
	first := Batch(batch, DefaultPrefixLen)
	second := Batch(batch, DefaultPrefixLen)
	if first != second {
		t.Fatalf("expected stable signature, got %q and %q", first, second)
	}
	if len(first) != signatureHexLen {
		t.Fatalf("expected %d hex chars, got %d", signatureHexLen, len(first))
	}
}

func TestBatchOrderSensitive(t *testing.T) {
	a := models.TextCandidate{Plain: "a"}
	b := models.TextCandidate{Plain: "b"}
	if Batch([]models.Candidate{a, b}, 0) == Batch([]models.Candidate{b, a}, 0) {
		t.Fatal("expected swapped candidates to change the signature")
	}
}

func TestFingerprintTextUsesLengthBeyondPrefix(t *testing.T) {
	prefix := strings.Repeat("x", DefaultPrefixLen)
	short := models.TextCandidate{Plain: prefix + "tail"}
	long := models.TextCandidate{Plain: prefix + "tail-with-more"}
	if Fingerprint(short, DefaultPrefixLen) == Fingerprint(long, DefaultPrefixLen) {
		t.Fatal("expected different lengths to produce different fingerprints")
	}

	sameLenA := models.TextCandidate{Plain: prefix + "aaaa"}
	sameLenB := models.TextCandidate{Plain: prefix + "bbbb"}
	if Fingerprint(sameLenA, DefaultPrefixLen) != Fingerprint(sameLenB, DefaultPrefixLen) {
		t.Fatal("expected content past the prefix to be ignored when lengths match")
	}
}

func TestFingerprintTextCountsRunes(t *testing.T) {
	got := Fingerprint(models.TextCandidate{Plain: "héllo"}, 2)
	if got != "t|5|hé|0|" {
		t.Fatalf("unexpected fingerprint %q", got)
	}
}

func TestFingerprintFileIgnoresContent(t *testing.T) {
	a := models.FileCandidate{Data: []byte("aaaa"), Name: "x.bin", MIME: "application/octet-stream"}
	b := models.FileCandidate{Data: []byte("bbbb"), Name: "x.bin", MIME: "application/octet-stream"}
	if Fingerprint(a, 0) != Fingerprint(b, 0) {
		t.Fatal("expected file fingerprint to depend on metadata only")
	}
	c := models.FileCandidate{Data: []byte("aaaa"), Name: "y.bin", MIME: "application/octet-stream"}
	if Fingerprint(a, 0) == Fingerprint(c, 0) {
		t.Fatal("expected name to change the fingerprint")
	}
}

func TestBatchDistinguishesTextAndFile(t *testing.T) {
	text := []models.Candidate{models.TextCandidate{Plain: "f"}}
	file := []models.Candidate{models.FileCandidate{Name: "f"}}
	if Batch(text, 0) == Batch(file, 0) {
		t.Fatal("expected text and file batches to differ")
	}
}
