package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMinFileSize = 10
	testMaxFileSize = 1024 * 1024
)

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func writeTestZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for entryName, content := range entries {
		entry, err := w.Create(entryName)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestValidate_AcceptsWellFormedPDF(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.pdf", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.True(t, outcome.Valid)
	assert.Equal(t, ConfidenceHigh, outcome.Confidence)
	assert.Equal(t, ".pdf", outcome.Metadata["extension"])
}

func TestValidate_RejectsFileBelowMinimumSize(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.pdf", []byte("x"))

	outcome := v.Validate(path, 1)

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceHigh, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "too small")
}

func TestValidate_RejectsFileAboveMaximumSize(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.pdf", []byte("%PDF-1.4 content"))

	outcome := v.Validate(path, testMaxFileSize+1)

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceHigh, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "too large")
}

func TestValidate_RejectsUnsupportedExtension(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.exe", []byte("MZ some executable bytes"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceHigh, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "unsupported file extension")
}

func TestValidate_RejectsMislabeledPDF(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.pdf", []byte("just plain text pretending to be a pdf"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceMedium, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "corrupted or mislabeled")
}

func TestValidate_RejectsEncryptedPDF(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.pdf", []byte("%PDF-1.7\n<< /Encrypt 5 0 R >>\n"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceMedium, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "password protected")
}

func TestValidate_AcceptsWellFormedDocx(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestZip(t, "resume.docx", map[string]string{
		"word/document.xml": "<w:document><w:body><w:p>hello</w:p></w:body></w:document>",
	})

	outcome := v.Validate(path, fileSize(t, path))

	assert.True(t, outcome.Valid)
}

func TestValidate_RejectsEncryptedDocx(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	// Local file header with general-purpose bit 0 set.
	content := append([]byte("PK\x03\x04"), 0x14, 0x00, 0x01, 0x00)
	content = append(content, make([]byte, 32)...)
	path := writeTestFile(t, "resume.docx", content)

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceMedium, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "password protected")
}

func TestValidate_RejectsTruncatedDocx(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	// Local header present, no end-of-central-directory record.
	content := append([]byte("PK\x03\x04"), 0x14, 0x00, 0x00, 0x00)
	content = append(content, make([]byte, 64)...)
	path := writeTestFile(t, "resume.docx", content)

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceMedium, outcome.Confidence)
	assert.Contains(t, outcome.Reason, "truncated or corrupted")
}

func TestValidate_AcceptsLegacyDocWithOLESignature(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	content := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	path := writeTestFile(t, "resume.doc", content)

	outcome := v.Validate(path, fileSize(t, path))

	assert.True(t, outcome.Valid)
}

func TestValidate_RejectsMislabeledLegacyDoc(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.doc", []byte("this is not an OLE compound file"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.False(t, outcome.Valid)
	assert.Equal(t, ConfidenceMedium, outcome.Confidence)
}

func TestValidate_FileShorterThanSniffWindowStillValidates(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	// Far below the 1 KB sniff window: the head read stops at end of file
	// and the signature check sees every byte that exists.
	content := []byte("%PDF-1.4\n%%EOF\n")
	require.Less(t, len(content), headerSniffSize)
	path := writeTestFile(t, "resume.pdf", content)

	outcome := v.Validate(path, fileSize(t, path))

	assert.True(t, outcome.Valid)
}

func TestValidate_PlainTextSkipsBinaryChecks(t *testing.T) {
	v := NewFileValidator(testMinFileSize, testMaxFileSize)
	path := writeTestFile(t, "resume.txt", []byte("John Doe\nSoftware Engineer\n"))

	outcome := v.Validate(path, fileSize(t, path))

	assert.True(t, outcome.Valid)
	assert.Equal(t, ".txt", outcome.Metadata["extension"])
}

func TestShouldProceed_ThirtyPercentThreshold(t *testing.T) {
	tests := []struct {
		name    string
		invalid int
		total   int
		want    bool
	}{
		{"no files", 0, 0, false},
		{"all valid", 0, 5, true},
		{"exactly at threshold", 3, 10, true},
		{"just over threshold", 4, 10, false},
		{"one of three is over", 1, 3, false},
		{"one of two is over", 1, 2, false},
		{"single valid file", 0, 1, true},
		{"single invalid file", 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldProceed(tt.invalid, tt.total))
		})
	}
}

func TestContentTypeForExtension_KnownAndUnknown(t *testing.T) {
	assert.Equal(t, ContentTypePDF, ContentTypeForExtension(".pdf"))
	assert.Equal(t, ContentTypeDocx, ContentTypeForExtension(".DOCX"))
	assert.Equal(t, ContentTypeText, ContentTypeForExtension(".txt"))
	assert.Equal(t, "", ContentTypeForExtension(".exe"))
}
