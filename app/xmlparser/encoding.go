package xmlparser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

const prologueWindow = 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectDeclaredEncoding returns the lower-cased encoding named in the
// <?xml ... ?> prologue, or "" when none is declared.
func DetectDeclaredEncoding(data []byte) string {
	if len(data) > prologueWindow {
		data = data[:prologueWindow]
	}
	s := string(data)

	start := strings.Index(s, "<?xml")
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start:], "?>")
	if end < 0 {
		return ""
	}
	decl := strings.ReplaceAll(s[start:start+end], "'", `"`)

	i := strings.Index(decl, "encoding=")
	if i < 0 {
		return ""
	}
	rest := decl[i+len("encoding="):]
	if !strings.HasPrefix(rest, `"`) {
		return ""
	}
	rest = rest[1:]
	q := strings.IndexByte(rest, '"')
	if q < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(rest[:q]))
}

// ToUTF8 converts data from the named charset to UTF-8 and strips a UTF-8
// byte order mark. On error the BOM-stripped input is returned with it.
func ToUTF8(data []byte, label string) ([]byte, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == "utf-8" || label == "utf8" {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return bytes.TrimPrefix(data, utf8BOM), fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return bytes.TrimPrefix(data, utf8BOM), fmt.Errorf("failed to convert from %s: %w", label, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}
