package upload

import (
	"fmt"
	"mime"
	"slices"
	"strings"
)

var DefaultAllowedTypes = []string{"audio/mpeg", "audio/wav", "audio/mp4", "audio/ogg", "audio/webm"}

// ValidationError is a client error; Message is safe to show to end users.
type ValidationError struct {
	Message string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload: %s", e.Reason)
}

type Policy struct {
	AllowedTypes []string
	MaxBytes     int64
}

func NewPolicy(maxMB int) Policy {
	return Policy{
		AllowedTypes: DefaultAllowedTypes,
		MaxBytes:     int64(maxMB) * 1024 * 1024,
	}
}

func (p Policy) MaxMB() int64 {
	return p.MaxBytes / (1024 * 1024)
}

// Validate checks an upload before anything is staged or sent upstream.
func (p Policy) Validate(fileName, contentType string, size int64) error {
	if strings.TrimSpace(fileName) == "" && size == 0 {
		return &ValidationError{Message: "No audio file was provided.", Reason: "missing file"}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if !slices.Contains(p.AllowedTypes, mediaType) {
		return &ValidationError{
			Message: "The file type is not supported.",
			Reason:  fmt.Sprintf("content type %q not allowed", contentType),
		}
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return &ValidationError{
			Message: fmt.Sprintf("The file is too large. The maximum size is %dMB.", p.MaxMB()),
			Reason:  fmt.Sprintf("size %d exceeds %d bytes", size, p.MaxBytes),
		}
	}
	return nil
}
