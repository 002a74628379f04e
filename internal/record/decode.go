package record

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Decode failures. Each is wrapped with the cause and a snippet of the
// offending input; match with eris.Is.
var (
	ErrEnvelope   = eris.New("record: invalid response envelope")
	ErrBase64     = eris.New("record: invalid base64 payload")
	ErrDecompress = eris.New("record: corrupt compressed payload")
	ErrUTF8       = eris.New("record: payload is not valid UTF-8")
	ErrJSON       = eris.New("record: payload is not valid JSON")
)

const snippetLen = 200

// maxPayloadBytes bounds the decompressed payload.
const maxPayloadBytes = 256 << 20

type envelope struct {
	Data *struct {
		Records *string `json:"records"`
	} `json:"data"`
}

// DecodeResponse parses a table API response body and decodes the
// compressed record tree held in data.records.
func DecodeResponse(body []byte) (*Node, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrapf(ErrEnvelope, "%v (body: %q)", err, snippet(body))
	}
	if env.Data == nil || env.Data.Records == nil {
		return nil, eris.Wrapf(ErrEnvelope, "data.records field missing (body: %q)", snippet(body))
	}
	return DecodePayload(*env.Data.Records)
}

// DecodePayload turns base64 text holding a gzip, zlib or raw deflate
// stream of UTF-8 JSON into a record tree.
func DecodePayload(encoded string) (*Node, error) {
	raw, err := decodeBase64(strings.TrimSpace(encoded))
	if err != nil {
		return nil, eris.Wrapf(ErrBase64, "%v (payload: %q)", err, snippet([]byte(encoded)))
	}

	plain, err := decompress(raw)
	if err != nil {
		return nil, eris.Wrapf(ErrDecompress, "%v (%d compressed bytes)", err, len(raw))
	}

	if !utf8.Valid(plain) {
		return nil, eris.Wrapf(ErrUTF8, "payload: %q", snippet(plain))
	}

	tree, err := ParseJSON(bytes.NewReader(plain))
	if err != nil {
		return nil, eris.Wrapf(ErrJSON, "%v (payload: %q)", err, snippet(plain))
	}
	return tree, nil
}

// EncodePayload is the inverse of DecodePayload using gzip and standard
// base64. It is used to build fixtures.
func EncodePayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "record: marshal payload")
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", eris.Wrap(err, "record: gzip payload")
	}
	if err := zw.Close(); err != nil {
		return "", eris.Wrap(err, "record: close gzip writer")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, eris.New("empty payload")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if alt, altErr := enc.DecodeString(s); altErr == nil {
			return alt, nil
		}
	}
	return nil, err
}

func decompress(raw []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch {
	case len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b:
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case isZlibHeader(raw):
		r, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		r = flate.NewReader(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck

	out, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxPayloadBytes {
		return nil, eris.Errorf("decompressed payload exceeds %d bytes", maxPayloadBytes)
	}
	return out, nil
}

// isZlibHeader reports whether b starts with a valid RFC 1950 header.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

func snippet(b []byte) string {
	if len(b) <= snippetLen {
		return string(b)
	}
	return string(b[:snippetLen]) + "..."
}
