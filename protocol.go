package main

import (
	"fmt"
	"os"
)

// Not map[string][]string, unlike http.Header. Keys are lower-cased.
type HTTPHeader map[string]string

type Request struct {
	Method  string
	URI     string
	Version string
	Headers HTTPHeader
}

// HeaderField keeps response headers in the order they are written.
type HeaderField struct {
	Name  string
	Value string
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers []HeaderField
	Body    []byte

	// File, when set, is streamed after the head. FileSize bytes are sent.
	File     *os.File
	FileSize int64
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// Close releases the file backing the body, if any.
func (r *Response) Close() error {
	if r.File == nil {
		return nil
	}
	err := r.File.Close()
	r.File = nil
	return err
}

const (
	contentTypeHTML  = "text/html"
	contentTypePNG   = "image/png"
	contentTypePlain = "text/plain"
	contentTypeOctet = "application/octet-stream"

	defaultRedirectLocation = "http://example.com/redirected-page.html"
)

var statusPhrases = map[int]string{
	200: "OK",
	302: "Found",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	501: "Not Implemented",
}

var cannedBodies = map[int]string{
	400: "<html><body><h1>400 Bad Request</h1><p>The request could not be understood.</p></body></html>",
	403: "<html><body><h1>403 Forbidden</h1><p>Access to the requested resource is forbidden.</p></body></html>",
	404: "<html><body><h1>404 Not Found</h1><p>The requested resource was not found.</p></body></html>",
	500: "<html><body><h1>500 Internal Server Error</h1><p>An internal server error occurred.</p></body></html>",
	501: "<html><body><h1>501 Not Implemented</h1><p>The requested operation is not supported.</p></body></html>",
}

func newResponse(status int) *Response {
	return &Response{
		Version: "HTTP/1.1",
		Status:  status,
		Phrase:  statusPhrases[status],
	}
}

// errorResponse builds the canned response for status. location is used only
// for 302. Passing a status without a canned response is a programming error.
func errorResponse(status int, location string) *Response {
	res := newResponse(status)
	if status == 302 {
		if location == "" {
			location = defaultRedirectLocation
		}
		res.Headers = []HeaderField{{"Location", location}}
		return res
	}
	body, ok := cannedBodies[status]
	if !ok {
		panic(fmt.Sprintf("no canned response for status %d", status))
	}
	res.Headers = []HeaderField{{"Content-Type", contentTypeHTML}}
	res.Body = []byte(body)
	return res
}

// loginOK is sent for a successful login. It has no body.
func loginOK() *Response {
	res := newResponse(200)
	res.Headers = []HeaderField{{"Content-Type", contentTypePlain}}
	return res
}
