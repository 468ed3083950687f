package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseLoginForm(t *testing.T) {
	tests := []struct {
		body       string
		user, pass string
		ok         bool
	}{
		{"username=alice&password=wonder", "alice", "wonder", true},
		{"password=wonder&username=alice", "alice", "wonder", true},
		{"username=alice&password=wonder&remember=1", "alice", "wonder", true},
		{"username=a%40b&password=x+y", "a%40b", "x+y", true},
		{"username=first&username=second&password=p", "second", "p", true},
		{"username=alice", "alice", "", false},
		{"username=alice&password=", "alice", "", false},
		{"username=alice&password=a=b", "alice", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		user, pass, ok := parseLoginForm([]byte(tt.body))
		if user != tt.user || pass != tt.pass || ok != tt.ok {
			t.Errorf("parseLoginForm(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.body, user, pass, ok, tt.user, tt.pass, tt.ok)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	site := newTestSite(t)
	successes := testutil.ToFloat64(loginAttempts.WithLabelValues("success"))
	failures := testutil.ToFloat64(loginAttempts.WithLabelValues("failure"))

	res := site.authenticate([]byte("username=alice&password=wonder"))
	ExpectEqual(t, "200", itoa(res.Status))
	ct, _ := res.Header("Content-Type")
	ExpectEqual(t, "text/plain", ct)

	res = site.authenticate([]byte("username=alice&password=wrong"))
	ExpectEqual(t, "404", itoa(res.Status))

	res = site.authenticate([]byte("garbage"))
	ExpectEqual(t, "404", itoa(res.Status))

	if got := testutil.ToFloat64(loginAttempts.WithLabelValues("success")) - successes; got != 1 {
		t.Errorf("success counter moved by %v, want 1", got)
	}
	if got := testutil.ToFloat64(loginAttempts.WithLabelValues("failure")) - failures; got != 2 {
		t.Errorf("failure counter moved by %v, want 2", got)
	}
}
