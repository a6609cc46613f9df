package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// MaxTextValueLen caps text property values on reports.
const MaxTextValueLen = 100

// MaxImageBytes caps image uploads at 2000 KB.
const MaxImageBytes = 2000 << 10

// imageMimeTypes and imageExtensions whitelist what an image-typed property
// accepts. The MIME type is sniffed from content, not trusted from headers.
var (
	imageMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
)

// Errors is a field-keyed validation error map, keyed the way form fields
// are named (property_type_<id>).
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(e))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// ValidateTextValue checks a text property value: required, bounded length.
func ValidateTextValue(value string) error {
	if value == "" {
		return errors.New("value is required")
	}
	if len(value) > MaxTextValueLen {
		return fmt.Errorf("value is too long (max %d characters)", MaxTextValueLen)
	}
	return nil
}

// ValidateImageUpload checks an uploaded file for an image property: bounded
// size and image content detected from the file's leading bytes.
func ValidateImageUpload(header *multipart.FileHeader) error {
	if header == nil {
		return errors.New("an image file is required")
	}
	if header.Size > MaxImageBytes {
		return fmt.Errorf("image is too large (max %d KB)", MaxImageBytes>>10)
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	if !imageMimeTypes[detected] {
		return fmt.Errorf("upload is not an image (detected %s)", detected)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return fmt.Errorf("invalid image extension %q", ext)
	}

	return nil
}
