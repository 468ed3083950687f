package main

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"syscall"
)

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".html"):
		return contentTypeHTML
	case strings.HasSuffix(path, ".png"):
		return contentTypePNG
	default:
		return contentTypeOctet
	}
}

// isNotFound reports whether err means the path names nothing, including a
// path that runs through a regular file.
func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// fileResponse opens path and returns a 200 response that streams it. The
// size is taken from Stat before anything is written, so Content-Length is
// known without reading the file into memory. The caller owns res.Close.
func fileResponse(path string) (*Response, error) {
	f, err := os.Open(path)
	if err != nil {
		if isNotFound(err) {
			return nil, wrapIO(ResourceNotFound, err)
		}
		return nil, wrapIO(ServerIOFailure, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapIO(ServerIOFailure, err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, ResourceNotFound
	}

	res := newResponse(200)
	res.Headers = []HeaderField{
		{"Content-Type", contentTypeFor(path)},
		{"Content-Length", strconv.FormatInt(fi.Size(), 10)},
	}
	res.File = f
	res.FileSize = fi.Size()
	return res, nil
}
