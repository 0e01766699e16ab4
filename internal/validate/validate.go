// Package validate sanitizes every paper id, DOI, URL, and filename that
// crosses in from the outside (spec.md §4.12), both as standalone helpers
// and as go-playground/validator custom functions for struct-tag use.
package validate

import (
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	fedErrors "research-master/internal/errors"
)

const maxFilenameBytes = 255

var shellMetacharacters = ";|&$`(){}[]<>*?!"

// New returns a *validator.Validate with the package's custom tag functions
// ("paper_id", "doi", "safe_url", "filename") registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("paper_id", func(fl validator.FieldLevel) bool {
		return PaperID(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("doi", func(fl validator.FieldLevel) bool {
		return DOI(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("safe_url", func(fl validator.FieldLevel) bool {
		return SafeURL(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("filename", func(fl validator.FieldLevel) bool {
		_, err := Filename(fl.Field().String())
		return err == nil
	})
	return v
}

// PaperID rejects empty ids, path-traversal fragments, control characters,
// and shell metacharacters.
func PaperID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fedErrors.NewInvalidRequestError("paper id must not be empty", "paper_id", id)
	}
	for _, bad := range []string{"..", "./", ".\\"} {
		if strings.Contains(trimmed, bad) {
			return fedErrors.NewInvalidRequestError("paper id contains a path-traversal fragment", "paper_id", id)
		}
	}
	for _, r := range trimmed {
		if r == 0 {
			return fedErrors.NewInvalidRequestError("paper id contains a null byte", "paper_id", id)
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return fedErrors.NewInvalidRequestError("paper id contains a control character", "paper_id", id)
		}
		if strings.ContainsRune(shellMetacharacters, r) {
			return fedErrors.NewInvalidRequestError("paper id contains a shell metacharacter", "paper_id", id)
		}
	}
	return nil
}

// CanonicalDOI lowercases doi and strips a "doi:" or "https?://doi.org/"
// prefix, mirroring models.CanonicalDOI for the validation boundary.
func CanonicalDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = strings.TrimPrefix(d, "doi:")
	d = strings.TrimPrefix(d, "https://doi.org/")
	d = strings.TrimPrefix(d, "http://doi.org/")
	return d
}

// DOI validates a DOI once canonicalized: must start with "10.", must
// contain "/", must not contain "..".
func DOI(doi string) error {
	d := CanonicalDOI(doi)
	if !strings.HasPrefix(d, "10.") {
		return fedErrors.NewInvalidRequestError("doi must start with 10.", "doi", doi)
	}
	if !strings.Contains(d, "/") {
		return fedErrors.NewInvalidRequestError("doi must contain a slash", "doi", doi)
	}
	if strings.Contains(d, "..") {
		return fedErrors.NewInvalidRequestError("doi contains a path-traversal fragment", "doi", doi)
	}
	return nil
}

var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
	"0.0.0.0":   true,
}

// SafeURL parses url and rejects anything that could enable SSRF: non-http(s)
// schemes, embedded CR/LF/NUL, loopback/unspecified hosts, and RFC1918
// private IPv4 ranges.
func SafeURL(raw string) error {
	if strings.ContainsAny(raw, "\r\n\x00") {
		return fedErrors.NewInvalidRequestError("url contains an embedded control character", "url", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fedErrors.NewInvalidRequestError("url does not parse", "url", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fedErrors.NewInvalidRequestError("url scheme must be http or https", "url", raw)
	}
	host := u.Hostname()
	if blockedHosts[strings.ToLower(host)] {
		return fedErrors.NewInvalidRequestError("url targets a blocked host", "url", raw)
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateOrLoopback(ip) {
		return fedErrors.NewInvalidRequestError("url targets a private or loopback address", "url", raw)
	}
	return nil
}

func isPrivateOrLoopback(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	default:
		return false
	}
}

// Filename strips a leading path, drops disallowed characters, rejects
// traversal and drive/UNC-style separators, and caps the result at 255
// bytes while preserving the extension.
func Filename(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", fedErrors.NewInvalidRequestError("filename contains a path-traversal fragment", "filename", name)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return "", fedErrors.NewInvalidRequestError("filename must not be absolute", "filename", name)
	}
	if strings.Contains(name, ":/") || strings.Contains(name, ":\\") {
		return "", fedErrors.NewInvalidRequestError("filename must not contain a drive or UNC separator", "filename", name)
	}

	name = strings.ReplaceAll(name, "\x00", "")
	name = filepath.Base(name)

	var kept strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == ' ' || r == '-' {
			kept.WriteRune(r)
		}
	}
	clean := kept.String()
	if clean == "" {
		return "", fedErrors.NewInvalidRequestError("filename has no valid characters remaining", "filename", name)
	}

	if len(clean) > maxFilenameBytes {
		ext := filepath.Ext(clean)
		base := strings.TrimSuffix(clean, ext)
		keep := maxFilenameBytes - len(ext)
		if keep < 1 {
			keep = 1
			ext = ""
		}
		if len(base) > keep {
			base = base[:keep]
		}
		clean = base + ext
	}
	return clean, nil
}
