// Package encoding handles the character-set mess of Witcher 3 script files.
//
// Stock game scripts are UTF-16 with a BOM, but mod authors ship files in
// whatever their editor produced. We sniff the BOM and assume latin1 when
// none is present, decode everything to UTF-8 with LF newlines for merging,
// and re-encode to the game's convention (UTF-16LE with BOM, CRLF) on output.
package encoding

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset identifies a detected on-disk character set.
type Charset int

const (
	Latin1 Charset = iota
	UTF8BOM
	UTF16LE
	UTF16BE
)

// String returns the charset name.
func (c Charset) String() string {
	switch c {
	case Latin1:
		return "latin1"
	case UTF8BOM:
		return "utf-8-bom"
	case UTF16LE:
		return "utf-16le"
	case UTF16BE:
		return "utf-16be"
	default:
		return "unknown"
	}
}

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// Detect sniffs the BOM of raw file bytes. Files without a recognized BOM
// are assumed to be latin1, matching what script mods ship in practice.
func Detect(data []byte) Charset {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return UTF16BE
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8BOM
	default:
		return Latin1
	}
}

// Decode converts raw file bytes into a UTF-8 string with LF newlines,
// reporting the charset it detected.
func Decode(data []byte) (string, Charset, error) {
	charset := Detect(data)

	var decoded []byte
	var err error
	switch charset {
	case UTF16LE, UTF16BE:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		decoded, _, err = transform.Bytes(dec, data)
	case UTF8BOM:
		decoded = bytes.TrimPrefix(data, bomUTF8)
	default:
		dec := charmap.ISO8859_1.NewDecoder()
		decoded, _, err = transform.Bytes(dec, data)
	}
	if err != nil {
		return "", charset, fmt.Errorf("decode as %s: %w", charset, err)
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	return text, charset, nil
}

// EncodeGame converts merged UTF-8 text into the game's on-disk convention:
// UTF-16 little-endian with BOM and CRLF newlines.
func EncodeGame(text string) ([]byte, error) {
	crlf := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	out, _, err := transform.Bytes(enc, []byte(crlf))
	if err != nil {
		return nil, fmt.Errorf("encode utf-16: %w", err)
	}
	return out, nil
}
