// Package textenc guesses the text encoding of statement exports and
// decodes them to UTF-8.
package textenc

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by Detect.
const (
	UTF8        = "utf-8"
	UTF8BOM     = "utf-8-bom"
	UTF16LE     = "utf-16le"
	UTF16BE     = "utf-16be"
	Windows1252 = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect returns a best guess at the encoding of data. Byte order marks win;
// otherwise valid UTF-8 is UTF-8 and anything else is treated as Windows-1252,
// which is what UK bank exports use for the pound sign.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(data, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return UTF16BE
	case utf8.Valid(data):
		return UTF8
	default:
		return Windows1252
	}
}

func decoderFor(name string) *encoding.Decoder {
	switch name {
	case UTF8BOM:
		return unicode.UTF8BOM.NewDecoder()
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	default:
		return nil
	}
}

// NewReader detects the encoding of data and returns a reader producing
// UTF-8 text along with the detected encoding name.
func NewReader(data []byte) (io.Reader, string) {
	name := Detect(data)
	dec := decoderFor(name)
	if dec == nil {
		return bytes.NewReader(data), name
	}
	return transform.NewReader(bytes.NewReader(data), dec), name
}

// Decode converts data to a UTF-8 string.
func Decode(data []byte) (string, error) {
	r, _ := NewReader(data)
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
