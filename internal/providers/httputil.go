package providers

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
)

// MaxDownloadBytes is the spec.md §6 default hard cap per downloaded file
// (downloads.max_file_size_mb=100), overridable per-deployment by callers
// that pass their own ceiling to DownloadTo.
const MaxDownloadBytes = 100 * 1024 * 1024

// ReadClassified applies spec.md §4.5 step 5's HTTP status classification:
// 2xx is read and returned; 404 becomes NotFound; 429 becomes a retryable
// RateLimit error carrying the Retry-After header (and, when it is a whole
// number of seconds, retry_after_seconds); 5xx becomes a retryable Api
// error; anything else becomes a permanent Api error.
func ReadClassified(provider string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fedErrors.NewNotFoundError(provider, "")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))
	if err != nil {
		return nil, fedErrors.NewNetworkError("failed reading response body", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := fedErrors.NewAPIError(provider, "upstream returned status "+http.StatusText(resp.StatusCode), resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		builder := fedErrors.NewError(fedErrors.KindRateLimit, "RATE_LIMIT", "upstream rate limited the request").
			WithComponent(provider).
			WithDetail("retry_after_header", retryAfter)
		if secs, convErr := strconv.Atoi(strings.TrimSpace(retryAfter)); convErr == nil && secs > 0 {
			builder = builder.WithDetail("retry_after_seconds", secs)
		}
		return nil, builder.
			WithStatusCode(resp.StatusCode).
			Retryable(true).
			Build()
	}
	if resp.StatusCode >= 500 {
		apiErr.Retryable = true
	}
	return nil, apiErr
}

// DownloadTo streams url's body to a file at path, enforcing maxBytes, and
// returns the number of bytes written.
func DownloadTo(ctx context.Context, client *httpclient.Client, url, path string, maxBytes int64) (int64, error) {
	resp, err := client.Get(ctx, url, map[string]string{"Accept": "application/pdf"})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fedErrors.NewNotFoundError("download target", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fedErrors.NewAPIError("download", "upstream returned status "+http.StatusText(resp.StatusCode), resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fedErrors.NewIOError("create download file", err)
	}
	defer out.Close()

	limited := io.LimitReader(resp.Body, maxBytes+1)
	n, err := io.Copy(out, limited)
	if err != nil {
		return 0, fedErrors.NewIOError("write download file", err)
	}
	if n > maxBytes {
		os.Remove(path)
		return 0, fedErrors.NewError(fedErrors.KindIO, "DOWNLOAD_TOO_LARGE", "downloaded file exceeded size ceiling").
			WithDetail("max_bytes", maxBytes).
			Build()
	}
	return n, nil
}
