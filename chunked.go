package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxChunkLength guards the hex accumulator against overflow.
const maxChunkLength = 1 << 30

// ChunkedReader decodes a Transfer-Encoding: chunked body. Chunk extensions
// and trailers are not supported.
type ChunkedReader struct {
	r        *bufio.Reader
	chunkLen int // -1 means the beginning of the next chunk
	done     bool
}

func NewChunkedReader(r io.Reader) *ChunkedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ChunkedReader{r: br, chunkLen: -1}
}

func (r *ChunkedReader) readChunkLength() error {
	b, err := r.r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read chunk length: %w", unexpectedEOF(err))
	}
	blen := len(b)
	if blen < 3 || b[blen-2] != '\r' {
		return fmt.Errorf("%w: chunk length without CRLF", ProtocolUnparseable)
	}

	length := 0
	for _, v := range b[:blen-2] {
		switch {
		case v >= '0' && v <= '9':
			length = length*16 + int(v-'0')
		case v >= 'a' && v <= 'f':
			length = length*16 + int(v-'a') + 10
		case v >= 'A' && v <= 'F':
			length = length*16 + int(v-'A') + 10
		default:
			return fmt.Errorf("%w: invalid chunk length %s", ProtocolUnparseable, strings.TrimSpace(string(b)))
		}
		if length > maxChunkLength {
			return fmt.Errorf("%w: chunk too large", ProtocolUnparseable)
		}
	}
	r.chunkLen = length
	return nil
}

func (r *ChunkedReader) readCRLF() error {
	b, err := r.r.ReadBytes('\n')
	if err != nil {
		return unexpectedEOF(err)
	}
	if len(b) != 2 || b[0] != '\r' {
		return fmt.Errorf("%w: missing CRLF after chunk", ProtocolUnparseable)
	}
	return nil
}

func (r *ChunkedReader) Read(b []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.chunkLen < 0 {
		if err := r.readChunkLength(); err != nil {
			return 0, err
		}
	}
	if r.chunkLen == 0 {
		if err := r.readCRLF(); err != nil {
			return 0, err
		}
		r.done = true
		return 0, io.EOF
	}

	n := min(r.chunkLen, len(b))
	m, err := r.r.Read(b[:n])
	r.chunkLen -= m
	if r.chunkLen == 0 {
		r.chunkLen = -1
		if err == nil {
			err = r.readCRLF()
		}
	}
	return m, unexpectedEOF(err)
}

// unexpectedEOF reports EOF inside a request that has already begun as
// io.ErrUnexpectedEOF.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
