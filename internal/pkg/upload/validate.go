package upload

import (
	"errors"
	"net/http"
	"strings"
)

// MaxFileSize caps uploaded files at 50 MB.
const MaxFileSize = 50 * 1024 * 1024

// ValidateFile checks size and the first bytes (head) of an upload. Shared
// files may be any type except actively scriptable content: HTML and SVG/XML
// are rejected because stored files are served from a public URL.
// Returns the detected mime type or an error.
func ValidateFile(fileName string, fileSize int64, head []byte) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", errors.New("file name is required")
	}
	if fileSize <= 0 {
		return "", errors.New("file is empty")
	}
	if fileSize > MaxFileSize {
		return "", errors.New("file size must be less than 50MB")
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		// Block SVG/XML until a sanitizer is available
		return "", errors.New("SVG/XML content is not allowed")
	}

	return detected, nil
}
