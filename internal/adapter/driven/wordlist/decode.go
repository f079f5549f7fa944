package wordlist

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// Encoding selects how corpus bytes are turned into entries. No mode ever
// fails on undecodable input.
type Encoding string

const (
	// EncodingRaw keeps every line byte for byte. Entries then match input
	// passwords carrying the same bytes, whatever their encoding.
	EncodingRaw Encoding = "raw"
	// EncodingLatin1 maps every byte to one rune (ISO 8859-1) and stores the
	// UTF-8 form.
	EncodingLatin1 Encoding = "latin1"
	// EncodingUTF8 stores valid UTF-8 and replaces invalid sequences with
	// U+FFFD.
	EncodingUTF8 Encoding = "utf8"
)

// ParseEncoding maps a configured name to an Encoding. The empty string
// selects EncodingRaw.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(name) {
	case "", EncodingRaw:
		return EncodingRaw, nil
	case EncodingLatin1, "latin-1", "iso-8859-1":
		return EncodingLatin1, nil
	case EncodingUTF8, "utf-8":
		return EncodingUTF8, nil
	default:
		return "", fmt.Errorf("%w: unknown corpus encoding %q", model.ErrInvalidConfiguration, name)
	}
}

func (e Encoding) decoder() *encoding.Decoder {
	switch e {
	case EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder()
	case EncodingUTF8:
		return unicode.UTF8.NewDecoder()
	default:
		return nil
	}
}

// decodeReader wraps r so that it yields UTF-8 according to e. Raw mode
// returns r unchanged.
func (e Encoding) decodeReader(r io.Reader) io.Reader {
	d := e.decoder()
	if d == nil {
		return r
	}
	return transform.NewReader(r, d)
}
