package letsencrypt

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-acme/lego/v4/challenge/http01"
)

// ChallengeStore is an HTTP-01 challenge provider that holds active tokens
// in memory instead of binding its own listener. It implements lego's
// challenge.Provider on the ACME side and serves the well-known challenge
// path on the HTTP side, so a single port-80 listener can answer
// challenges and redirect everything else.
//
// Safe for concurrent use.
type ChallengeStore struct {
	mu     sync.RWMutex
	tokens map[string]string // token -> key authorization
}

// NewChallengeStore creates an empty challenge store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{tokens: make(map[string]string)}
}

// Present stores the key authorization for a pending challenge. Called by
// the ACME client before validation.
func (s *ChallengeStore) Present(domain, token, keyAuth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = keyAuth
	return nil
}

// CleanUp removes the token once validation finishes, pass or fail.
func (s *ChallengeStore) CleanUp(domain, token, keyAuth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// HandleChallenge answers the request when it targets the ACME challenge
// path and reports whether it was handled. Unknown tokens under the
// challenge path get a 404 rather than falling through to the application:
// nothing but the ACME validator has business there.
func (s *ChallengeStore) HandleChallenge(w http.ResponseWriter, r *http.Request) bool {
	prefix := http01.ChallengePath("")
	if !strings.HasPrefix(r.URL.Path, prefix) {
		return false
	}

	token := strings.TrimPrefix(r.URL.Path, prefix)

	s.mu.RLock()
	keyAuth, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return true
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, keyAuth)
	return true
}
