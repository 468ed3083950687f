package main

import (
	"bufio"
	"log"
	"os"
	"strings"
)

// CredentialStore checks logins against a file of "username:password" lines.
// The file is read again on every call and never written.
type CredentialStore struct {
	Path string
}

func (s *CredentialStore) Verify(username, password string) bool {
	f, err := os.Open(s.Path)
	if err != nil {
		log.Printf("W credential store: %v", err)
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Split(strings.TrimSuffix(sc.Text(), "\r"), ":")
		// trailing empty fields do not count: "alice:wonder:" is two fields
		for len(fields) > 0 && fields[len(fields)-1] == "" {
			fields = fields[:len(fields)-1]
		}
		if len(fields) == 2 && fields[0] == username && fields[1] == password {
			return true
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("W credential store: %v", err)
	}
	return false
}
