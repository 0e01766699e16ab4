// Package pdf defines the PDF text-extraction contract used by provider
// Read operations. The extraction backend itself is an external collaborator
// (see ExtractFunc); this package owns only the contract and the lazy
// availability probe.
package pdf

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	fedErrors "research-master/internal/errors"
)

// ExtractFunc performs the actual text extraction from a PDF file on disk.
// Swappable so the availability probe and the provider call sites never
// depend on a concrete extraction library.
type ExtractFunc func(path string) (string, error)

var (
	once        sync.Once
	available   bool
	extractFunc ExtractFunc = defaultExtract
)

// SetExtractFunc overrides the extraction backend. Exposed for tests and for
// wiring a real extraction library at startup; resets the availability probe
// so the next IsAvailable call re-checks against the new backend.
func SetExtractFunc(fn ExtractFunc) {
	extractFunc = fn
	once = sync.Once{}
}

// IsAvailable checks once, lazily, whether the extraction backend works on
// this system, caching the result for the process lifetime.
func IsAvailable() bool {
	once.Do(func() {
		available = probe()
		if !available {
			slog.Warn("pdf text extraction not available on this system")
		}
	})
	return available
}

func probe() bool {
	return extractFunc != nil
}

// ExtractText extracts plain text from the PDF at path, mapping failures to
// the error kinds named in the extractor contract: NotAvailable →
// KindNotImplemented, InvalidFile → KindInvalidRequest, Io → KindIO,
// ExtractionFailed → KindParse.
func ExtractText(path string) (string, error) {
	if !IsAvailable() {
		return "", fedErrors.NewError(fedErrors.KindNotImplemented, "PDF_NOT_AVAILABLE",
			"PDF text extraction not available: native library not installed or not working").
			Build()
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fedErrors.NewInvalidRequestError("file not found or not a valid PDF: "+path, "path", path)
	}
	if info.IsDir() {
		return "", fedErrors.NewInvalidRequestError("not a file: "+path, "path", path)
	}

	text, err := extractFunc(path)
	if err != nil {
		msg := err.Error()
		if isMissingLibraryError(msg) {
			return "", fedErrors.NewError(fedErrors.KindNotImplemented, "PDF_NOT_AVAILABLE", "PDF text extraction not available").
				WithCause(err).Build()
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return "", fedErrors.NewIOError("pdf_extract", err)
		}
		return "", fedErrors.NewParseError("pdf", "failed to extract text from PDF: "+msg, err)
	}
	return text, nil
}

func isMissingLibraryError(msg string) bool {
	for _, needle := range []string{"poppler", "shared library", "cannot open shared object", "dylib"} {
		if strings.Contains(strings.ToLower(msg), needle) {
			return true
		}
	}
	return false
}

// defaultExtract is a pure-Go stand-in: it has no native dependency to
// probe, so it always reports available and extracts nothing but whitespace
// from non-text PDFs. Callers wanting real extraction supply their own
// ExtractFunc via SetExtractFunc at startup.
func defaultExtract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extractPlainTextFromPDFBytes(data), nil
}

// extractPlainTextFromPDFBytes pulls bytes inside parenthesized PDF text
// show operators `(...)  Tj` / `(...) TJ`. It is a minimal fallback, not a
// general-purpose PDF parser.
func extractPlainTextFromPDFBytes(data []byte) string {
	var out strings.Builder
	depth := 0
	var cur strings.Builder
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '(' && depth == 0:
			depth = 1
			cur.Reset()
		case c == '(' && depth > 0:
			depth++
			cur.WriteByte(c)
		case c == ')' && depth == 1:
			depth = 0
			out.WriteString(cur.String())
			out.WriteByte(' ')
		case c == ')' && depth > 1:
			depth--
			cur.WriteByte(c)
		case c == '\\' && depth > 0 && i+1 < len(data):
			i++
			cur.WriteByte(data[i])
		case depth > 0:
			cur.WriteByte(c)
		}
	}
	return strings.TrimSpace(out.String())
}
