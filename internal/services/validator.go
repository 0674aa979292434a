package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ValidationOutcome classifies one file as accept/reject. Confidence reflects
// how certain the check was: signature and size mismatches are structural
// (high), password and corruption sniffing are heuristic (medium).
type ValidationOutcome struct {
	Valid      bool              `json:"is_valid"`
	Reason     string            `json:"error_reason,omitempty"`
	Confidence Confidence        `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type FileValidator interface {
	Validate(filePath string, declaredSize int64) ValidationOutcome
}

const (
	headerSniffSize = 1024
	signatureSize   = 8
	// End-of-central-directory record is 22 bytes minimum and its signature
	// must appear within the trailing 64 KB (max zip comment length).
	eocdScanSize = 65536 + 22
)

var (
	pdfSignature  = []byte("%PDF")
	pdfHeader     = []byte("%PDF-")
	pdfEncrypt    = []byte("/Encrypt")
	zipLocalMagic = []byte("PK\x03\x04")
	zipEOCDMagic  = []byte("PK\x05\x06")
	oleSignature  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// allowedExtensions maps supported upload extensions to their canonical
// declared content types.
var allowedExtensions = map[string]string{
	".pdf":  ContentTypePDF,
	".doc":  ContentTypeDoc,
	".docx": ContentTypeDocx,
	".txt":  ContentTypeText,
}

// AllowedExtension reports whether the upload extension is supported.
func AllowedExtension(ext string) bool {
	_, ok := allowedExtensions[strings.ToLower(ext)]
	return ok
}

// ContentTypeForExtension maps an upload extension to the content type the
// extractor dispatches on. Unknown extensions map to an empty string.
func ContentTypeForExtension(ext string) string {
	return allowedExtensions[strings.ToLower(ext)]
}

type fileValidator struct {
	minFileSize int64
	maxFileSize int64
}

func NewFileValidator(minFileSize, maxFileSize int64) FileValidator {
	return &fileValidator{
		minFileSize: minFileSize,
		maxFileSize: maxFileSize,
	}
}

// Validate implements FileValidator. Checks run in order and short-circuit on
// the first failure; the file is only ever read, never modified.
func (v *fileValidator) Validate(filePath string, declaredSize int64) ValidationOutcome {
	ext := strings.ToLower(filepath.Ext(filePath))

	// 1. Size bounds
	if declaredSize < v.minFileSize {
		return reject(fmt.Sprintf("file too small: %d bytes (minimum %d)", declaredSize, v.minFileSize), ConfidenceHigh)
	}
	if declaredSize > v.maxFileSize {
		return reject(fmt.Sprintf("file too large: %d bytes (maximum %d)", declaredSize, v.maxFileSize), ConfidenceHigh)
	}

	// 2. Extension allow-list
	if !AllowedExtension(ext) {
		return reject(fmt.Sprintf("unsupported file extension: %s", ext), ConfidenceHigh)
	}

	// Plain text has no binary structure to sniff.
	if ext == ".txt" {
		return accept(ext)
	}

	head, err := readHead(filePath, headerSniffSize)
	if err != nil {
		return reject(fmt.Sprintf("failed to read file: %v", err), ConfidenceHigh)
	}

	// 3. Password-protection heuristic
	if outcome, protected := v.checkPasswordProtection(ext, head); protected {
		return outcome
	}

	// 4. Corruption / signature check
	if outcome, corrupted := v.checkSignature(filePath, ext, head); corrupted {
		return outcome
	}

	return accept(ext)
}

func (v *fileValidator) checkPasswordProtection(ext string, head []byte) (ValidationOutcome, bool) {
	switch ext {
	case ".pdf":
		if bytes.Contains(head, pdfEncrypt) {
			return reject("PDF appears to be password protected", ConfidenceMedium), true
		}
	case ".docx":
		// General-purpose bit 0 of a local file header marks an encrypted
		// entry.
		if idx := bytes.Index(head, zipLocalMagic); idx >= 0 && idx+6 < len(head) {
			if head[idx+6]&0x01 != 0 {
				return reject("document appears to be password protected", ConfidenceMedium), true
			}
		}
	}
	return ValidationOutcome{}, false
}

func (v *fileValidator) checkSignature(filePath, ext string, head []byte) (ValidationOutcome, bool) {
	if len(head) < signatureSize {
		return reject("file too short to carry a valid signature", ConfidenceMedium), true
	}

	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(head, pdfSignature) || !bytes.Contains(head, pdfHeader) {
			return reject("file does not look like a valid PDF (corrupted or mislabeled)", ConfidenceMedium), true
		}
	case ".docx":
		if !bytes.HasPrefix(head, zipLocalMagic) {
			return reject("file does not look like a valid Office document (corrupted or mislabeled)", ConfidenceMedium), true
		}
		hasEOCD, err := tailContains(filePath, zipEOCDMagic, eocdScanSize)
		if err != nil {
			return reject(fmt.Sprintf("failed to read file: %v", err), ConfidenceHigh), true
		}
		if !hasEOCD {
			return reject("document archive is truncated or corrupted", ConfidenceMedium), true
		}
	case ".doc":
		if !bytes.HasPrefix(head, oleSignature) {
			return reject("file does not look like a valid Word document (corrupted or mislabeled)", ConfidenceMedium), true
		}
	}
	return ValidationOutcome{}, false
}

// ShouldProceed is the batch-level policy: a batch is abandoned only when more
// than 30% of its files fail validation, so one or two bad files never block
// an otherwise healthy batch.
func ShouldProceed(invalidCount, totalCount int) bool {
	if totalCount == 0 {
		return false
	}
	return invalidCount <= totalCount*3/10
}

func accept(ext string) ValidationOutcome {
	return ValidationOutcome{
		Valid:      true,
		Confidence: ConfidenceHigh,
		Metadata:   map[string]string{"extension": ext},
	}
}

func reject(reason string, confidence Confidence) ValidationOutcome {
	return ValidationOutcome{
		Valid:      false,
		Reason:     reason,
		Confidence: confidence,
	}
}

func readHead(filePath string, n int) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// A single Read may return short on a valid file; ReadFull only stops
	// early at end of file.
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:read], nil
}

func tailContains(filePath string, marker []byte, scanSize int64) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}

	offset := info.Size() - scanSize
	if offset < 0 {
		offset = 0
	}
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return false, err
	}
	return bytes.Contains(buf, marker), nil
}
