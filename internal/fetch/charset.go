package fetch

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Decode converts body to UTF-8. Valid UTF-8 is returned as-is; otherwise
// the charset declared by contentType or a <meta> tag is tried, then
// GB18030, then Big5. Invalid bytes are dropped as a last resort.
func Decode(body []byte, contentType string) string {
	if utf8.Valid(body) {
		return string(body)
	}

	if _, name, _ := charset.DetermineEncoding(body, contentType); name != "utf-8" && name != "windows-1252" {
		if enc, _ := charset.Lookup(name); enc != nil {
			if s, ok := decodeStrict(enc, body); ok {
				return s
			}
		}
	}

	for _, enc := range []encoding.Encoding{simplifiedchinese.GB18030, traditionalchinese.Big5} {
		if s, ok := decodeStrict(enc, body); ok {
			return s
		}
	}

	return strings.ToValidUTF8(string(body), "")
}

func decodeStrict(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
