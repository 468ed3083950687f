package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestSizeToInt(t *testing.T) {
	check := func(s string, expect int) {
		actual, err := sizeToInt(s)
		if err != nil {
			t.Error(err)
		}
		if actual != expect {
			t.Errorf("got %d, want %d\n", actual, expect)
		}
	}
	check("30", 30)
	check("100k", 100*1000)
	check("6m", 6*1000*1000)

	checkErr := func(s string) {
		_, err := sizeToInt(s)
		if err == nil {
			t.Errorf("%s is invalid, but no error reported", s)
		}
	}
	checkErr("")
	checkErr("1h")
	checkErr("a")
}

func TestWriteSite(t *testing.T) {
	dir := t.TempDir()
	if err := writeSite(dir, 10000, "alice:wonder"); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(filepath.Join(dir, "blob.png"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 10000 {
		t.Errorf("blob size = %d, want 10000", fi.Size())
	}

	creds, err := os.ReadFile(filepath.Join(dir, "login.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(creds) != "alice:wonder\n" {
		t.Errorf("login.txt = %q", creds)
	}

	for _, name := range []string{"index.html", "login.html", "sub/index.html", "empty"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestAsciiChunkPrintable(t *testing.T) {
	c := newAsciiChunk()
	for i, b := range c.buf {
		if !strconv.IsPrint(rune(b)) || b == '\n' {
			t.Fatalf("byte %d = %q is not printable", i, b)
		}
	}
}
