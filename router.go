package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Site is the served tree plus everything a request handler needs from config.
type Site struct {
	Root             string
	Credentials      *CredentialStore
	RedirectLocation string

	// ExplicitErrors answers unparseable and unsupported requests with
	// 400/501 instead of closing the connection silently.
	ExplicitErrors bool
}

func NewSite(cfg Config) *Site {
	return &Site{
		Root:             cfg.Root,
		Credentials:      &CredentialStore{Path: cfg.CredentialsFile},
		RedirectLocation: cfg.RedirectLocation,
		ExplicitErrors:   cfg.ExplicitErrors,
	}
}

// resolve maps a GET request-target to the file to send. The target is not
// normalized: it is appended to Root as-is once the ".." guard has passed.
func (s *Site) resolve(target string) (string, error) {
	if strings.HasSuffix(target, "/") {
		target += "index.html"
	}
	if strings.Contains(target, "..") {
		return "", PathTraversalAttempt
	}

	path := s.Root + target
	fi, err := os.Stat(path)
	switch {
	case err != nil:
		// Every stat failure is reported as not found.
		if !isNotFound(err) {
			log.Printf("I stat %q: %v", target, err)
		}
		if target == "/redirect" {
			return "", RedirectRequested
		}
		return "", ResourceNotFound
	case fi.Mode().IsRegular():
		return path, nil
	case fi.IsDir():
		index := filepath.Join(path, "index.html")
		if ifi, err := os.Stat(index); err == nil && ifi.Mode().IsRegular() {
			return index, nil
		}
		return "", ResourceNotFound
	default:
		return "", ResourceNotFound
	}
}

func (s *Site) serveGet(target string) *Response {
	path, err := s.resolve(target)
	if err == nil {
		log.Printf("I resolved %s -> %s", target, path)
		var res *Response
		if res, err = fileResponse(path); err == nil {
			return res
		}
	}
	status := statusFor(err)
	if status == 500 {
		log.Printf("E GET %s: %v", target, err)
	} else {
		log.Printf("I GET %s: %v", target, err)
	}
	return errorResponse(status, s.RedirectLocation)
}
