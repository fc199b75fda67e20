package storage

import "testing"

func TestValidateFileType(t *testing.T) {
	cases := []struct {
		contentType, filename string
		want                  bool
	}{
		{"image/jpeg", "photo.jpg", true},
		{"", "photo.PNG", true},
		{"application/pdf", "report", true},
		{"IMAGE/WEBP", "", true},
		{"", "report", false},
		{"video/mp4", "clip.mp4", false},
		{"text/html", "page.html", false},
	}
	for _, tc := range cases {
		if got := ValidateFileType(tc.contentType, tc.filename); got != tc.want {
			t.Errorf("ValidateFileType(%q, %q) = %v, want %v", tc.contentType, tc.filename, got, tc.want)
		}
	}
}

func TestContentTypeForFilename(t *testing.T) {
	if got := ContentTypeForFilename("scan.PDF"); got != "application/pdf" {
		t.Errorf("got %q", got)
	}
	if got := ContentTypeForFilename("unknown.bin"); got != "application/octet-stream" {
		t.Errorf("got %q", got)
	}
}

func TestAttachmentKey(t *testing.T) {
	got := AttachmentKey("org1", "iv1", "photo.jpg")
	if got != "attachments/org1/iv1/photo.jpg" {
		t.Errorf("got %q", got)
	}
	// Path traversal in the filename is stripped.
	got = AttachmentKey("org1", "iv1", "../../../etc/passwd")
	if got != "attachments/org1/iv1/passwd" {
		t.Errorf("traversal not stripped: %q", got)
	}
}
