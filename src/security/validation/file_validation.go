package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
)

// AllowedImageContentTypes are the sniffed types accepted for screenshots.
var AllowedImageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// ValidateImageContent sniffs the first 512 bytes of file and rejects anything
// that is not an allowed image. The read position is reset afterwards.
func ValidateImageContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(buffer[:n]), ";")[0])
	if !AllowedImageContentTypes[detected] {
		logger.L.Warn("Disallowed screenshot content type", "detectedContentType", detected)
		return detected, fmt.Errorf("%w: detected file content type '%s' is not an allowed image", ErrValidationFailed, detected)
	}

	logger.L.Debug("Screenshot content type validated", "detectedContentType", detected)
	return detected, nil
}
