package transcode

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ruffel/childproc/internal/sentinel"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
const ErrUnknownEncoding = sentinel.Error("unknown encoding")

// Lookup returns a transformer that converts bytes in the named encoding to
// UTF-8 text (or, for hex and base64, to their textual representation).
func Lookup(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	case "utf8", "utf-8":
		return unicode.UTF8.NewDecoder(), nil
	case "utf16le", "utf-16le", "ucs2", "ucs-2":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case "latin1", "binary":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "ascii":
		return asciiDecoder{}, nil
	case "hex":
		return hexEncoder{}, nil
	case "base64":
		return base64Encoder{}, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	return enc.NewDecoder(), nil
}

// Validate reports whether name resolves to a known encoding.
func Validate(name string) error {
	_, err := Lookup(name)

	return err
}

// NewReader wraps r so that reads return text decoded from the named encoding.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	t, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	return transform.NewReader(r, t), nil
}

// asciiDecoder clears the high bit of every byte. The result is always valid
// UTF-8 since only 7-bit values remain.
type asciiDecoder struct{ transform.NopResetter }

func (asciiDecoder) Transform(dst, src []byte, _ bool) (int, int, error) {
	n := min(len(src), len(dst))
	for i := range n {
		dst[i] = src[i] & 0x7f
	}

	if n < len(src) {
		return n, n, transform.ErrShortDst
	}

	return n, n, nil
}

type hexEncoder struct{ transform.NopResetter }

func (hexEncoder) Transform(dst, src []byte, _ bool) (int, int, error) {
	n := min(len(src), len(dst)/2)
	hex.Encode(dst, src[:n])

	if n < len(src) {
		return 2 * n, n, transform.ErrShortDst
	}

	return 2 * n, n, nil
}

// base64Encoder only emits whole 3-byte groups until the input is exhausted,
// so the concatenated output equals the encoding of the whole stream.
type base64Encoder struct{ transform.NopResetter }

func (base64Encoder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var err error

	n := len(src)
	if !atEOF {
		n -= n % 3
	}

	if fit := len(dst) / 4 * 3; n > fit {
		n = fit
		err = transform.ErrShortDst
	}

	base64.StdEncoding.Encode(dst, src[:n])

	if err == nil && n < len(src) {
		err = transform.ErrShortSrc
	}

	return base64.StdEncoding.EncodedLen(n), n, err
}
