package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var units = map[byte]int{
	'k': 1000,
	'm': 1000 * 1000,
	'g': 1000 * 1000 * 1000,
}

func sizeToInt(s string) (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("Invalid size")
	}
	var err error
	var m, sz int
	m, ok := units[s[len(s)-1]]
	if ok {
		sz, err = strconv.Atoi(s[:len(s)-1])
	} else {
		m = 1
		sz, err = strconv.Atoi(s)
	}
	if err != nil {
		return 0, err
	}
	return sz * m, nil
}

// asciiChunk produces printable filler so large files can be inspected
// with a pager.
type asciiChunk struct {
	nextAscii byte
	buf       [4096]byte
}

func newAsciiChunk() *asciiChunk {
	c := &asciiChunk{}
	for i := 0; i < len(c.buf); i++ {
		for {
			c.nextAscii = (c.nextAscii + 1) % 128
			if strconv.IsPrint(rune(c.nextAscii)) && c.nextAscii != '\n' {
				break
			}
		}
		c.buf[i] = c.nextAscii
	}
	return c
}

// writeTo writes exactly total bytes of filler to w.
func (c *asciiChunk) writeTo(w io.Writer, total int) error {
	for total > 0 {
		n := min(total, len(c.buf))
		if _, err := w.Write(c.buf[:n]); err != nil {
			return err
		}
		total -= n
	}
	return nil
}

const indexPage = `<html><body><h1>minihttpd</h1><a href="/login.html">login</a></body></html>`

const loginPage = `<html><body>
<form method="POST" action="/login.html">
<input name="username"><input name="password" type="password">
<button>Log in</button>
</form>
</body></html>`

// writeSite lays out dir with an index page, a login form, a credential
// file, a subdirectory with its own index and a blob of blobSize bytes.
func writeSite(dir string, blobSize int, credential string) error {
	files := map[string]string{
		"index.html":     indexPage,
		"login.html":     loginPage,
		"login.txt":      credential + "\n",
		"sub/index.html": indexPage,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "blob.png"))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := newAsciiChunk().writeTo(bw, blobSize); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
