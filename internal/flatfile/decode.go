package flatfile

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/domicilios-tipovia/internal/pipeline"
)

// Default encodings tried when reading an input file.
const (
	DefaultEncoding         = "utf-8"
	DefaultFallbackEncoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts data to UTF-8 text using primary, then fallback once if
// primary fails. It returns the text and the name of the encoding that
// worked. Both failing is a pipeline.ErrDecode.
func Decode(data []byte, primary, fallback string) (string, string, error) {
	if primary == "" {
		primary = DefaultEncoding
	}

	text, perr := decodeAs(data, primary)
	if perr == nil {
		return text, primary, nil
	}
	if fallback == "" || strings.EqualFold(fallback, primary) {
		return "", "", fmt.Errorf("%w: %s: %w", pipeline.ErrDecode, primary, perr)
	}

	text, ferr := decodeAs(data, fallback)
	if ferr == nil {
		return text, fallback, nil
	}
	return "", "", fmt.Errorf("%w: %s: %w; fallback %s: %w", pipeline.ErrDecode, primary, perr, fallback, ferr)
}

func decodeAs(data []byte, name string) (string, error) {
	if isUTF8Name(name) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 at byte %d", invalidOffset(data))
		}
		return string(data), nil
	}

	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("decoded text is not valid UTF-8")
	}
	return string(out), nil
}

func lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8", "utf-8-sig":
		return true
	}
	return false
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
