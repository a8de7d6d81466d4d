package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/liliang-cn/askdesk/internal/config"
	"github.com/liliang-cn/askdesk/internal/domain"
)

// UploadPolicy decides which files the presentation layer may hand to Upload.
// The coordinator itself accepts anything.
type UploadPolicy struct {
	MaxBytes   int64
	extensions map[string]bool
}

// NewUploadPolicy builds a policy from the upload config section
func NewUploadPolicy(cfg config.UploadConfig) UploadPolicy {
	p := UploadPolicy{
		MaxBytes:   cfg.MaxBytes(),
		extensions: make(map[string]bool, len(cfg.AllowedExtensions)),
	}
	for _, ext := range cfg.AllowedExtensions {
		p.extensions[normalizeExt(ext)] = true
	}
	return p
}

// FileExt returns the lower-cased extension of filename, with its dot
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Check returns ErrUnsupportedFile or ErrFileTooLarge when the file is
// rejected. A size of -1 means unknown and is not checked.
func (p UploadPolicy) Check(filename string, size int64) error {
	ext := FileExt(filename)
	if !p.extensions[ext] {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, filename)
	}
	if size == 0 {
		return fmt.Errorf("%w: %q is empty", domain.ErrInvalidRequest, filename)
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", domain.ErrFileTooLarge, filename, size, p.MaxBytes)
	}
	return nil
}

// contentTypes lists extensions whose content is sniffed before upload
var contentTypes = map[string]string{
	".pdf": "application/pdf",
}

// CheckContent sniffs the start of r and rejects a file whose content does
// not match its extension. r is rewound before returning.
func (p UploadPolicy) CheckContent(filename string, r io.ReadSeeker) error {
	want, ok := contentTypes[FileExt(filename)]
	if !ok {
		return nil
	}

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", filename, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %q: %w", filename, err)
	}

	if !mt.Is(want) {
		return fmt.Errorf("%w: %q has content type %s", domain.ErrUnsupportedFile, filename, mt.String())
	}
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
