package validation

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"
)

func TestValidateTextValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "SN-12345", false},
		{"empty", "", true},
		{"at limit", strings.Repeat("a", 100), false},
		{"over limit", strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTextValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTextValue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// uploadHeader round-trips content through a multipart form so the header
// under test looks exactly like one produced by an HTTP request.
func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1<<20)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

func imageOfSize(size int) []byte {
	content := make([]byte, size)
	copy(content, pngMagic)
	return content
}

func TestValidateImageUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  string
	}{
		{
			name:     "valid png",
			filename: "photo.png",
			content:  imageOfSize(1024),
		},
		{
			name:     "valid jpeg",
			filename: "photo.jpg",
			content:  append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 64)...),
		},
		{
			name:     "exactly at size limit",
			filename: "photo.png",
			content:  imageOfSize(MaxImageBytes),
		},
		{
			name:     "over size limit",
			filename: "photo.png",
			content:  imageOfSize(MaxImageBytes + 1),
			wantErr:  "too large",
		},
		{
			name:     "text file with image extension",
			filename: "notes.png",
			content:  []byte("just some text pretending to be an image"),
			wantErr:  "not an image",
		},
		{
			name:     "image content with bad extension",
			filename: "photo.pdf",
			content:  imageOfSize(1024),
			wantErr:  "extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := uploadHeader(t, tt.filename, tt.content)
			err := ValidateImageUpload(header)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateImageUpload() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateImageUpload() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageUploadNilHeader(t *testing.T) {
	if err := ValidateImageUpload(nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestErrorsMessageIsStable(t *testing.T) {
	errs := Errors{
		"property_type_b": "value is required",
		"property_type_a": "value is too long",
	}
	want := "property_type_a: value is too long; property_type_b: value is required"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
