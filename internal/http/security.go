package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
)

const sessionCookie = "dt_session"

// csrfGuard issues one anti-forgery token per browser session and validates
// it on every mutating request before the ledger is touched. Tokens live in
// process memory for the lifetime of the server.
type csrfGuard struct {
	mu     sync.Mutex
	tokens map[string]string // session id -> token
}

func newCSRFGuard() *csrfGuard {
	return &csrfGuard{tokens: make(map[string]string)}
}

// issue returns the token for the request's session, creating the session
// cookie and token on first sight.
func (g *csrfGuard) issue(w http.ResponseWriter, r *http.Request) string {
	sid := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		sid = c.Value
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if sid != "" {
		if tok, ok := g.tokens[sid]; ok {
			return tok
		}
	}

	sid = randomHex(16)
	tok := randomHex(32)
	g.tokens[sid] = tok

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return tok
}

// check reports whether the form token matches the session's token.
func (g *csrfGuard) check(r *http.Request, formToken string) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil || formToken == "" {
		return false
	}

	g.mu.Lock()
	tok, ok := g.tokens[c.Value]
	g.mu.Unlock()
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(tok), []byte(formToken)) == 1
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: random source unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
