package tabular

// encoding.go cleans CSV bytes before parsing.
//
// Uploads are held in memory (the size decides the processing mode), so
// the cleanup works on whole buffers:
//
//   - the UTF-8 BOM written by Windows programs is dropped
//   - invalid UTF-8 bytes are replaced with '?'

import (
	"bytes"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cleanText returns data without a leading BOM and with every invalid
// UTF-8 byte replaced by '?'. The input is never modified.
func cleanText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if isAllASCII(data) || utf8.Valid(data) {
		return data
	}

	out := make([]byte, 0, len(data))
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
			read++
			continue
		}
		out = append(out, data[read:read+size]...)
		read += size
	}
	return out
}

// isAllASCII is the fast path; most material sheets are plain ASCII.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
