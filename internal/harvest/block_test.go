package harvest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/privacy-cli/internal/fetcher"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		body   string
		want   BlockType
	}{
		{"nil", nil, "", BlockNone},
		{"clean", http.Header{}, "<p>contact jane@x.com</p>", BlockNone},
		{"cf header", http.Header{"Cf-Mitigated": {"challenge"}}, "", BlockCloudflare},
		{"cf body", http.Header{}, "<title>Just a moment...</title>Checking your browser", BlockCloudflare},
		{"captcha", http.Header{}, "Please complete the reCAPTCHA to continue", BlockCaptcha},
		{"js shell", http.Header{}, "<html><noscript>Enable JavaScript to continue</noscript></html>", BlockJSShell},
		{"meta refresh", http.Header{}, `<meta http-equiv="refresh" content="0; url=/login">`, BlockJSShell},
		{"login", http.Header{}, `<form><input type="password" name="pw"></form>`, BlockLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *fetcher.Response
			if tt.name != "nil" {
				resp = &fetcher.Response{StatusCode: http.StatusOK, Header: tt.header, Body: []byte(tt.body)}
			}
			assert.Equal(t, tt.want, DetectBlock(resp))
		})
	}
}
