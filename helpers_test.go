package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func ExpectEqual(t *testing.T, expect, actual string) {
	t.Helper()
	if expect != actual {
		t.Errorf("Got %s, want %s", actual, expect)
	}
}

type MockAddr struct {
	str string
}

func (m MockAddr) Network() string { return "" }
func (m MockAddr) String() string  { return m.str }

// MockConn reads the request from in and collects the response in out.
// Once in is drained, reads fail with readErr, or io.EOF when it is nil.
type MockConn struct {
	in      *bytes.Buffer
	out     *bytes.Buffer
	addr    MockAddr
	closed  bool
	readErr error

	readDeadline  time.Time
	writeDeadline time.Time
}

func newMockConn(request string) *MockConn {
	return &MockConn{
		in:   bytes.NewBufferString(request),
		out:  new(bytes.Buffer),
		addr: MockAddr{"(client)"},
	}
}

func (m *MockConn) Read(b []byte) (int, error) {
	n, err := m.in.Read(b)
	if err == io.EOF && m.readErr != nil {
		err = m.readErr
	}
	return n, err
}

func (m *MockConn) Write(b []byte) (int, error) { return m.out.Write(b) }

func (m *MockConn) Close() error {
	m.closed = true
	return nil
}

func (m *MockConn) LocalAddr() net.Addr {
	return nil
}

func (m *MockConn) RemoteAddr() net.Addr {
	return m.addr
}

func (m *MockConn) SetDeadline(t time.Time) error {
	m.readDeadline, m.writeDeadline = t, t
	return nil
}

func (m *MockConn) SetReadDeadline(t time.Time) error {
	m.readDeadline = t
	return nil
}

func (m *MockConn) SetWriteDeadline(t time.Time) error {
	m.writeDeadline = t
	return nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// 42 bytes
const indexHTML = "<html><body><h1>Welcome</h1></body></html>"

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// newTestSite builds a served root and a credential file outside it.
//
//	root/index.html       indexHTML
//	root/logo.png         pngBytes
//	root/notes.txt        "notes"
//	root/docs/index.html  "docs"
//	root/empty/
//	login.txt             alice:wonder, bob:builder
func newTestSite(t *testing.T) *Site {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "site")
	files := map[string][]byte{
		"index.html":      []byte(indexHTML),
		"logo.png":        pngBytes,
		"notes.txt":       []byte("notes"),
		"docs/index.html": []byte("docs"),
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	creds := filepath.Join(dir, "login.txt")
	if err := os.WriteFile(creds, []byte("alice:wonder\nbob:builder\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &Site{
		Root:             root,
		Credentials:      &CredentialStore{Path: creds},
		RedirectLocation: defaultRedirectLocation,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadTimeout.Duration = 2 * time.Second
	cfg.WriteTimeout.Duration = 2 * time.Second
	cfg.ShutdownTimeout.Duration = time.Second
	return cfg
}

type parsedResponse struct {
	Version string
	Status  int
	Phrase  string
	Headers HTTPHeader
	Body    string
}

// parseResponse parses a response that is delimited by connection close.
func parseResponse(r io.Reader) (*parsedResponse, error) {
	br := bufio.NewReader(r)
	sl, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("status line: %w", err)
	}
	fields := strings.SplitN(strings.TrimSuffix(sl, "\r\n"), " ", 3)
	if len(fields) != 3 {
		return nil, fmt.Errorf("invalid status line %q", sl)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid status %q", fields[1])
	}
	res := &parsedResponse{Version: fields[0], Status: status, Phrase: fields[2], Headers: HTTPHeader{}}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		line = strings.TrimSuffix(line, "\r\n")
		if line == "" {
			break
		}
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid header %q", line)
		}
		res.Headers[strings.ToLower(kv[0])] = strings.TrimSpace(kv[1])
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	res.Body = string(body)
	return res, nil
}

func readResponse(t *testing.T, r io.Reader) *parsedResponse {
	t.Helper()
	res, err := parseResponse(r)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// runWorker feeds request through a Worker and returns what it wrote.
func runWorker(t *testing.T, site *Site, request string) *MockConn {
	t.Helper()
	conn := newMockConn(request)
	NewWorker(conn, site, testConfig()).Start()
	if !conn.closed {
		t.Error("connection was not closed")
	}
	return conn
}
