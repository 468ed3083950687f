package main

import (
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/valyala/bytebufferpool"
)

func capitalizeHeader(h string) string {
	ret := make([]rune, 0, len(h))
	cap := true
	for _, r := range h {
		if cap && unicode.IsLetter(r) {
			ret = append(ret, unicode.ToUpper(r))
			cap = false
		} else {
			ret = append(ret, r)
		}
		if r == '-' {
			cap = true
		}
	}
	return string(ret)
}

// WriteResponse sends res to w. The status line, headers and in-memory body
// are assembled in one pooled buffer and written with a single call. A file
// body is then streamed with io.CopyN, which lets *net.TCPConn use sendfile.
// It returns the number of body bytes written.
func WriteResponse(w io.Writer, res *Response) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(res.Version)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(res.Status))
	buf.WriteByte(' ')
	buf.WriteString(res.Phrase)
	buf.WriteString("\r\n")
	for _, h := range res.Headers {
		buf.WriteString(capitalizeHeader(h.Name))
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(res.Body)

	if _, err := w.Write(buf.B); err != nil {
		return 0, fmt.Errorf("write head: %w", err)
	}
	sent := int64(len(res.Body))
	if res.File == nil {
		return sent, nil
	}

	n, err := io.CopyN(w, res.File, res.FileSize)
	sent += n
	if err != nil {
		return sent, fmt.Errorf("stream %s after %d of %d bytes: %w", res.File.Name(), n, res.FileSize, err)
	}
	return sent, nil
}
