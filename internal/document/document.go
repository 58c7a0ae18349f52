// Package document models an ingested source document and detects its kind.
package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the detected document kind.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindDOCX        Kind = "docx"
	KindPPTX        Kind = "pptx"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// Source describes one ingested document. Immutable once created.
type Source struct {
	RunID        string
	Path         string
	Kind         Kind
	BaseFilename string
}

// NewSource builds a Source for a local file, detecting its kind from the
// file signature with an extension fallback.
func NewSource(runID, path string) (*Source, error) {
	base := filepath.Base(path)
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}
	return &Source{
		RunID:        runID,
		Path:         path,
		Kind:         kind,
		BaseFilename: strings.TrimSuffix(base, filepath.Ext(base)),
	}, nil
}

var (
	pdfMagic  = []byte("%PDF-")
	zipMagic  = []byte{0x50, 0x4b, 0x03, 0x04}
	pngMagic  = []byte{0x89, 0x50, 0x4e, 0x47}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// DetectKind determines the document kind from the file's magic bytes,
// falling back to the extension when the signature is ambiguous. ZIP
// containers are probed for OOXML content types to tell DOCX from PPTX.
func DetectKind(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnsupported, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, _ := f.Read(header)
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, pdfMagic):
		return KindPDF, nil
	case bytes.HasPrefix(header, pngMagic), bytes.HasPrefix(header, jpegMagic):
		return KindImage, nil
	case bytes.HasPrefix(header, zipMagic):
		if kind, ok := detectOOXML(path); ok {
			return kind, nil
		}
	}

	return kindFromExtension(path), nil
}

// detectOOXML opens a ZIP container and inspects its entries for the
// word/ or ppt/ part trees that identify DOCX and PPTX packages.
func detectOOXML(path string) (Kind, bool) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return KindUnsupported, false
	}
	defer r.Close()

	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return KindDOCX, true
		case strings.HasPrefix(f.Name, "ppt/"):
			return KindPPTX, true
		}
	}
	return KindUnsupported, false
}

func kindFromExtension(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".docx", ".doc":
		return KindDOCX
	case ".pptx", ".ppt":
		return KindPPTX
	case ".png", ".jpg", ".jpeg":
		return KindImage
	default:
		return KindUnsupported
	}
}
