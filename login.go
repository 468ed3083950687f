package main

import (
	"log"
	"strings"
)

// parseLoginForm extracts username and password from an
// application/x-www-form-urlencoded body. Values are compared raw, so no
// percent-decoding is done. Pairs with an empty value are ignored, so ok is
// false unless both fields are present and non-empty.
func parseLoginForm(body []byte) (username, password string, ok bool) {
	var hasUser, hasPass bool
	for _, pair := range strings.Split(string(body), "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 || kv[1] == "" {
			continue
		}
		switch kv[0] {
		case "username":
			username, hasUser = kv[1], true
		case "password":
			password, hasPass = kv[1], true
		}
	}
	return username, password, hasUser && hasPass
}

func (s *Site) authenticate(body []byte) *Response {
	username, password, ok := parseLoginForm(body)
	if ok && s.Credentials.Verify(username, password) {
		log.Printf("I login succeeded for %q", username)
		loginAttempts.WithLabelValues("success").Inc()
		return loginOK()
	}
	log.Printf("I login failed for %q", username)
	loginAttempts.WithLabelValues("failure").Inc()
	return errorResponse(404, "")
}
