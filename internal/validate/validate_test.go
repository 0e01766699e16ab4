package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperIDRejectsTraversalAndShellMeta(t *testing.T) {
	assert.NoError(t, PaperID("2301.12345"))
	assert.Error(t, PaperID(""))
	assert.Error(t, PaperID("../etc/passwd"))
	assert.Error(t, PaperID("id; rm -rf /"))
	assert.Error(t, PaperID("id\x00null"))
}

func TestDOIStripsPrefixesAndValidatesShape(t *testing.T) {
	assert.NoError(t, DOI("10.1000/xyz123"))
	assert.NoError(t, DOI("DOI:10.1000/xyz123"))
	assert.NoError(t, DOI("https://doi.org/10.1000/xyz123"))
	assert.Error(t, DOI("not-a-doi"))
	assert.Error(t, DOI("10.1000"))
	assert.Error(t, DOI("10.1000/../etc"))
}

func TestSafeURLRejectsSSRFTargets(t *testing.T) {
	assert.NoError(t, SafeURL("https://arxiv.org/abs/1234"))
	assert.Error(t, SafeURL("ftp://arxiv.org"))
	assert.Error(t, SafeURL("http://localhost/x"))
	assert.Error(t, SafeURL("http://127.0.0.1/x"))
	assert.Error(t, SafeURL("http://10.0.0.5/x"))
	assert.Error(t, SafeURL("http://192.168.1.1/x"))
	assert.Error(t, SafeURL("http://evil.com/\r\nSet-Cookie: x"))
}

func TestFilenameSanitizesAndCaps(t *testing.T) {
	clean, err := Filename("../../etc/passwd")
	assert.Error(t, err)
	assert.Empty(t, clean)

	clean, err = Filename("paper (final) [v2]!.pdf")
	assert.NoError(t, err)
	assert.Equal(t, "paper final v2.pdf", clean)

	long := strings.Repeat("a", 300) + ".pdf"
	clean, err = Filename(long)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(clean), maxFilenameBytes)
	assert.True(t, strings.HasSuffix(clean, ".pdf"))
}

func TestNewRegistersCustomTags(t *testing.T) {
	v := New()

	type req struct {
		PaperID string `validate:"paper_id"`
	}
	assert.NoError(t, v.Struct(req{PaperID: "2301.12345"}))
	assert.Error(t, v.Struct(req{PaperID: "../bad"}))
}
