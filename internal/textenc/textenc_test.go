package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte("Date,Amount\n"), UTF8},
		{"utf8 pound", []byte("\"£12.50\""), UTF8},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "Date"...), UTF8BOM},
		{"utf16le bom", []byte{0xFF, 0xFE, 'D', 0x00}, UTF16LE},
		{"utf16be bom", []byte{0xFE, 0xFF, 0x00, 'D'}, UTF16BE},
		{"windows-1252 pound", []byte{'"', 0xA3, '1', '2', '"'}, Windows1252},
		{"empty", nil, UTF8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.data), tt.name)
	}
}

func TestDecode_Windows1252Pound(t *testing.T) {
	got, err := Decode([]byte{0xA3, '1', '2', '0', '.', '0', '0'})
	require.NoError(t, err)
	assert.Equal(t, "£120.00", got)
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	got, err := Decode(append([]byte{0xEF, 0xBB, 0xBF}, "Date,Amount"...))
	require.NoError(t, err)
	assert.Equal(t, "Date,Amount", got)
}

func TestDecode_UTF16LE(t *testing.T) {
	data := []byte{0xFF, 0xFE, 'O', 0x00, 'K', 0x00}
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "OK", got)
}

func TestDecode_UTF8Passthrough(t *testing.T) {
	got, err := Decode([]byte("Café £5"))
	require.NoError(t, err)
	assert.Equal(t, "Café £5", got)
}
