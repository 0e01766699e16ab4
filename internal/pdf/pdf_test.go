package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	fedErrors "research-master/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextMissingFileIsInvalidRequest(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	var fe *fedErrors.FedError
	require.True(t, fedErrors.As(err, &fe))
	assert.Equal(t, fedErrors.KindInvalidRequest, fe.Kind)
}

func TestExtractTextNotAvailableMapsToNotImplemented(t *testing.T) {
	original := extractFunc
	SetExtractFunc(nil)
	defer func() { SetExtractFunc(original) }()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	_, err := ExtractText(path)
	require.Error(t, err)
	var fe *fedErrors.FedError
	require.True(t, fedErrors.As(err, &fe))
	assert.Equal(t, fedErrors.KindNotImplemented, fe.Kind)
}

func TestExtractTextExtractionFailureMapsToParse(t *testing.T) {
	original := extractFunc
	SetExtractFunc(func(path string) (string, error) { return "", errors.New("malformed object stream") })
	defer func() { SetExtractFunc(original) }()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	_, err := ExtractText(path)
	require.Error(t, err)
	var fe *fedErrors.FedError
	require.True(t, fedErrors.As(err, &fe))
	assert.Equal(t, fedErrors.KindParse, fe.Kind)
}

func TestExtractPlainTextFromPDFBytesPullsShowOperators(t *testing.T) {
	data := []byte(`BT (Hello) Tj (World) Tj ET`)
	assert.Equal(t, "Hello World", extractPlainTextFromPDFBytes(data))
}
