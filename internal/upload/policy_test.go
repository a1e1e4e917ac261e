package upload

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_AcceptsAllowedTypes(t *testing.T) {
	p := NewPolicy(50)
	for _, ct := range []string{"audio/mpeg", "audio/wav", "audio/mp4", "audio/ogg", "audio/webm", "audio/ogg; codecs=opus"} {
		if err := p.Validate("a.bin", ct, 1024); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", ct, err)
		}
	}
}

func TestValidate_RejectsZip(t *testing.T) {
	err := NewPolicy(50).Validate("archive.zip", "application/zip", 10)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "The file type is not supported." {
		t.Fatalf("unexpected user message: %q", verr.Message)
	}
}

func TestValidate_RejectsOversize(t *testing.T) {
	p := NewPolicy(1)
	err := p.Validate("big.wav", "audio/wav", p.MaxBytes+1)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Message, "1MB") {
		t.Fatalf("message should mention the limit: %q", verr.Message)
	}
	if err := p.Validate("ok.wav", "audio/wav", p.MaxBytes); err != nil {
		t.Fatalf("file at exactly the limit must be accepted, got %v", err)
	}
}

func TestValidate_RejectsMissingFile(t *testing.T) {
	if err := NewPolicy(1).Validate("", "", 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
