package table

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader yields valid UTF-8 from arbitrary input. A leading byte order
// mark is dropped and invalid sequences become U+FFFD, so spreadsheet
// exports saved by Windows tools parse cleanly.
type textReader struct {
	br      *bufio.Reader
	pending []byte
	err     error
}

func newTextReader(r io.Reader) *textReader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return &textReader{br: br}
}

// Read never splits a rune across calls: a rune that does not fit is
// carried over to the next Read.
func (r *textReader) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	if n == 0 && r.err != nil {
		return 0, r.err
	}

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		if n > 0 && r.br.Buffered() == 0 {
			break
		}
		ru, _, err := r.br.ReadRune()
		if err != nil {
			if n > 0 {
				r.err = err
				return n, nil
			}
			return 0, err
		}
		size := utf8.EncodeRune(buf[:], ru)
		c := copy(p[n:], buf[:size])
		n += c
		if c < size {
			r.pending = append([]byte(nil), buf[c:size]...)
		}
	}
	return n, nil
}
