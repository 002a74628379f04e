package harvest

import (
	"strings"

	"github.com/sells-group/privacy-cli/internal/fetcher"
)

// BlockType describes an anti-bot page served in place of the real content.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockLogin      BlockType = "login"
)

// jsShellMaxBytes bounds the size of a page treated as a script-only shell.
const jsShellMaxBytes = 2000

// DetectBlock reports whether resp looks like a challenge, captcha, login
// wall or script-only shell rather than the document itself.
func DetectBlock(resp *fetcher.Response) BlockType {
	if resp == nil {
		return BlockNone
	}
	if resp.Header.Get("cf-mitigated") == "challenge" {
		return BlockCloudflare
	}

	lower := strings.ToLower(string(resp.Body))

	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge"):
		return BlockCloudflare
	case strings.Contains(lower, "captcha"):
		return BlockCaptcha
	}

	if len(resp.Body) < jsShellMaxBytes {
		switch {
		case strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript"):
			return BlockJSShell
		case strings.Contains(lower, `http-equiv="refresh"`):
			return BlockJSShell
		case strings.Contains(lower, "type=\"password\""):
			return BlockLogin
		}
	}
	return BlockNone
}
