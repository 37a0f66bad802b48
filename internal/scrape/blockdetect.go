package scrape

import (
	"net/http"
	"strings"

	"github.com/sells-group/short-interest/internal/fetcher"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// IsBlocked reports whether resp is an anti-bot challenge page. It fits
// fetcher.HTTPOptions.Blocked so challenge pages served with a 200 count
// against the site's breaker.
func IsBlocked(resp *fetcher.Response) bool {
	blocked, _ := DetectBlock(resp)
	return blocked
}

// DetectBlock checks a response for signs of anti-bot protection. Finance
// sites mostly sit behind Cloudflare, DataDome or PerimeterX; all three
// answer automated clients with a challenge page instead of the quote.
func DetectBlock(resp *fetcher.Response) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(resp.Body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cf-chl-") {
		return true, BlockCloudflare
	}

	// DataDome and PerimeterX challenge markers, plus generic captcha widgets.
	if strings.Contains(lower, "captcha-delivery.com") ||
		strings.Contains(lower, "px-captcha") ||
		strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "h-captcha") {
		return true, BlockCaptcha
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(resp.Body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
