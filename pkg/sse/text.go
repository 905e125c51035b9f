package sse

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns a UTF-8 byte stream into text incrementally. A rune
// split across two chunks is held back in carry until its remaining bytes
// arrive. A leading byte order mark is dropped, and each maximal ill-formed
// subsequence decodes to a single U+FFFD.
type textDecoder struct {
	t     transform.Transformer
	carry []byte
	dst   []byte
}

func newTextDecoder() *textDecoder {
	return &textDecoder{t: unicode.UTF8BOM.NewDecoder()}
}

func (d *textDecoder) decode(chunk []byte) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}

	// Each source byte yields at most three destination bytes (U+FFFD).
	if need := 3*len(src) + utf8.UTFMax; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	var out []byte
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(dst, src, false)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append([]byte(nil), src...)
			return string(out)
		case errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0):
		case len(src) > 0:
			// No progress on a full buffer; replace one byte and move on.
			out = append(out, string(utf8.RuneError)...)
			src = src[1:]
		}
	}

	return string(out)
}

// reset drops any carried partial rune.
func (d *textDecoder) reset() {
	d.carry = nil
	d.t.Reset()
}
