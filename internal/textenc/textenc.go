// Package textenc resolves output encoding names to golang.org/x/text encoders.
package textenc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownEncoding is returned by Lookup for names it cannot resolve.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Byte-order marks are never written: every line is encoded on its own and
// a BOM per line would corrupt the file.
var aliases = map[string]encoding.Encoding{
	"":                 unicode.UTF8,
	"utf8":             unicode.UTF8,
	"utf-8":            unicode.UTF8,
	"default":          unicode.UTF8,
	"unicode":          unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf16":            unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16":           unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16le":         unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":         unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"bigendianunicode": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf32":            utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32":           utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32be":         utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	"latin1":           charmap.ISO8859_1,
}

// Lookup returns the encoding for name. Common shorthand names are matched
// case-insensitively; anything else is resolved through the IANA index.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := aliases[key]; ok {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Encode converts s from UTF-8 into enc. Characters enc cannot represent
// are replaced rather than failing the write.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	if enc == unicode.UTF8 {
		return []byte(s), nil
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Decode converts data written in enc back to UTF-8.
func Decode(enc encoding.Encoding, data []byte) (string, error) {
	if enc == unicode.UTF8 {
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
