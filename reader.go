package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineBytes bounds the request line and each header line.
const maxLineBytes = 8 << 10

type baseReader struct {
	r     *bufio.Reader
	errCh chan error
}

func (r *baseReader) ErrorOccurred() <-chan error {
	return r.errCh
}

// readLine returns one line without its CRLF or LF. A line cut off by EOF is
// returned together with io.ErrUnexpectedEOF.
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		l, err := r.r.ReadSlice('\n')
		line = append(line, l...)
		if len(line) > maxLineBytes+2 {
			return "", fmt.Errorf("%w: line longer than %d bytes", ProtocolUnparseable, maxLineBytes)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(line) > 0 {
			return string(line), io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		break
	}
	line = bytes.TrimSuffix(line[:len(line)-1], []byte("\r"))
	return string(line), nil
}

func (r *baseReader) readHeaders() (HTTPHeader, error) {
	headers := make(HTTPHeader)
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %w", unexpectedEOF(err))
		}
		if len(line) == 0 {
			break
		}
		fs := strings.SplitN(line, ":", 2)
		if len(fs) != 2 {
			return nil, fmt.Errorf("%w: invalid header %q", ProtocolUnparseable, line)
		}
		hdr := strings.ToLower(strings.TrimSpace(fs[0]))
		headers[hdr] = strings.TrimSpace(fs[1])
	}
	return headers, nil
}

// RequestReader reads an HTTP/1.x request line, and on demand the headers and
// body that follow it.
type RequestReader struct {
	baseReader
	req   *Request
	reqCh chan *Request
}

func NewRequestReader(r io.Reader) *RequestReader {
	var br *bufio.Reader
	if casted, ok := r.(*bufio.Reader); ok {
		br = casted
	} else {
		br = bufio.NewReader(r)
	}
	return &RequestReader{
		baseReader{br, make(chan error, 1)},
		&Request{},
		make(chan *Request, 1),
	}
}

// Start reads the request line in the background. Exactly one of
// RequestReceived or ErrorOccurred fires. The channels are buffered so the
// goroutine never outlives an abandoned reader.
func (r *RequestReader) Start() {
	go func() {
		if err := r.readRequestLine(); err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- r.req
	}()
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}

// readRequestLine splits the first line on whitespace. Only the method and
// target are required; the version is kept but never consulted.
func (r *RequestReader) readRequestLine() error {
	rl, err := r.readLine()
	// a request line ended by EOF instead of CRLF is still served
	if err != nil && !(errors.Is(err, io.ErrUnexpectedEOF) && rl != "") {
		return err
	}
	fields := strings.Fields(rl)
	if len(fields) < 2 {
		return fmt.Errorf("%w: request line %q", ProtocolUnparseable, rl)
	}
	r.req.Method = fields[0]
	r.req.URI = fields[1]
	if len(fields) > 2 {
		r.req.Version = fields[2]
	}
	return nil
}

// ReadHeaders reads the header block following the request line. It must be
// called only after RequestReceived has fired.
func (r *RequestReader) ReadHeaders() error {
	headers, err := r.readHeaders()
	if err == nil {
		r.req.Headers = headers
	}
	return err
}

func contentLength(h HTTPHeader) (int, error) {
	cls, ok := h["content-length"]
	if !ok {
		return 0, fmt.Errorf("%w: no Content-Length", ProtocolUnparseable)
	}
	cl, err := strconv.Atoi(cls)
	if err != nil || cl < 0 {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ProtocolUnparseable, cls)
	}
	return cl, nil
}

func isChunked(h HTTPHeader) bool {
	return strings.Contains(strings.ToLower(h["transfer-encoding"]), "chunked")
}

// ReadBody reads the request body framed by Transfer-Encoding: chunked or by
// Content-Length. A body with neither header, or longer than limit, is
// unparseable. I/O errors, including a body cut short by EOF, are returned
// as they are.
func (r *RequestReader) ReadBody(limit int) ([]byte, error) {
	h := r.req.Headers
	if isChunked(h) {
		body, err := io.ReadAll(io.LimitReader(NewChunkedReader(r.r), int64(limit)+1))
		if err != nil {
			return nil, fmt.Errorf("chunked body: %w", err)
		}
		if len(body) > limit {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", ProtocolUnparseable, limit)
		}
		return body, nil
	}

	cl, err := contentLength(h)
	if err != nil {
		return nil, err
	}
	if cl > limit {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds %d", ProtocolUnparseable, cl, limit)
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, fmt.Errorf("short body: %w", unexpectedEOF(err))
	}
	return body, nil
}
