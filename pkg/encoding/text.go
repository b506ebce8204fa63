// Package encoding provides text and path helpers for Source engine asset files.
package encoding

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts a text asset to a UTF-8 string.
// UTF-16 (either byte order) and UTF-8 byte order marks are honoured and stripped.
// Without a mark, data whose second byte is NUL is read as UTF-16LE, anything else
// as UTF-8 / ASCII.
func DecodeText(data []byte) (string, error) {
	var dec transform.Transformer
	switch {
	case hasUTF16BOM(data) || bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case looksUTF16LE(data):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return string(data), nil
	}

	result, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

func looksUTF16LE(data []byte) bool {
	return len(data) >= 2 && len(data)%2 == 0 && data[0] != 0 && data[1] == 0
}

// NormalizePath normalizes an asset path for case-insensitive lookup:
// backslashes become slashes, the result is lowercased and cleaned, and any
// leading slash is removed.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// JoinPath joins asset path elements and normalizes the result.
func JoinPath(elem ...string) string {
	parts := make([]string, len(elem))
	for i, e := range elem {
		parts[i] = strings.ReplaceAll(e, "\\", "/")
	}
	return NormalizePath(path.Join(parts...))
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// TrimNullString removes trailing null bytes and converts to string.
func TrimNullString(data []byte) string {
	return string(TrimNullBytes(data))
}
