package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash should not equal the password")
	}
	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword() should accept the right password")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("CheckPassword() should reject the wrong password")
	}
	if CheckPassword("anything", "") {
		t.Error("CheckPassword() should reject an empty hash")
	}
}

func TestCSRFTokens(t *testing.T) {
	gen := NewCSRFGenerator("secret")

	token, err := gen.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name    string
		session string
		token   string
		want    bool
	}{
		{name: "matching", session: "session-1", token: token, want: true},
		{name: "other session", session: "session-2", token: token, want: false},
		{name: "empty token", session: "session-1", token: "", want: false},
		{name: "empty session", session: "", token: token, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gen.ValidateToken(tt.session, tt.token); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := gen.GenerateToken(""); err == nil {
		t.Error("GenerateToken() should require a session ID")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.5:5555"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	r.Header.Set("X-Real-IP", "10.0.0.2")

	if got := GetClientIP(r); got != "192.168.1.5" {
		t.Errorf("GetClientIP() = %q, want the peer address", got)
	}
}

func TestTrustedProxiesClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies("127.0.0.1, 10.1.0.0/16")
	if err != nil {
		t.Fatalf("ParseTrustedProxies() error = %v", err)
	}

	tests := []struct {
		name    string
		proxies *TrustedProxies
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "untrusted peer spoofing forwarded for", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "6.6.6.6"}, remote: "203.0.113.9:4000", want: "203.0.113.9"},
		{name: "untrusted peer spoofing real ip", proxies: proxies, headers: map[string]string{"X-Real-IP": "6.6.6.6"}, remote: "203.0.113.9:4000", want: "203.0.113.9"},
		{name: "no proxies configured", proxies: &TrustedProxies{}, headers: map[string]string{"X-Forwarded-For": "6.6.6.6"}, remote: "127.0.0.1:1234", want: "127.0.0.1"},
		{name: "nil proxies", proxies: nil, headers: map[string]string{"X-Forwarded-For": "6.6.6.6"}, remote: "127.0.0.1:1234", want: "127.0.0.1"},
		{name: "trusted peer", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "198.51.100.7"}, remote: "127.0.0.1:1234", want: "198.51.100.7"},
		{name: "client prepends a fake hop", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.7, 10.1.2.3"}, remote: "127.0.0.1:1234", want: "198.51.100.7"},
		{name: "all hops trusted", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "10.1.0.5, 10.1.2.3"}, remote: "127.0.0.1:1234", want: "10.1.0.5"},
		{name: "garbage hop", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "127.0.0.1:1234", want: "127.0.0.1"},
		{name: "real ip from trusted peer", proxies: proxies, headers: map[string]string{"X-Real-IP": "198.51.100.8"}, remote: "127.0.0.1:1234", want: "198.51.100.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := tt.proxies.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		wantLen int
		wantErr bool
	}{
		{name: "empty", list: "", wantLen: 0},
		{name: "ips and ranges", list: "127.0.0.1,::1, 10.0.0.0/8", wantLen: 3},
		{name: "bad ip", list: "localhost", wantErr: true},
		{name: "bad range", list: "10.0.0.0/99", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxies, err := ParseTrustedProxies(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTrustedProxies() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && proxies.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", proxies.Len(), tt.wantLen)
			}
		})
	}
}

func TestRealIPRewritesRemoteAddr(t *testing.T) {
	proxies, err := ParseTrustedProxies("127.0.0.1")
	if err != nil {
		t.Fatalf("ParseTrustedProxies() error = %v", err)
	}
	var seen string
	handler := proxies.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClientIP(r)
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "198.51.100.7" {
		t.Errorf("behind trusted proxy, handler saw %q", seen)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:4000"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "203.0.113.9" {
		t.Errorf("direct caller, handler saw %q", seen)
	}
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("token-secret")

	token, err := issuer.Issue("sess-1", "user-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	sessionID, err := issuer.SessionID(token)
	if err != nil {
		t.Fatalf("SessionID() error = %v", err)
	}
	if sessionID != "sess-1" {
		t.Errorf("SessionID() = %q, want sess-1", sessionID)
	}

	if _, err := NewTokenIssuer("other-secret").SessionID(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}

	expired, _ := issuer.Issue("sess-2", "user-1", time.Now().Add(-time.Minute))
	if _, err := issuer.SessionID(expired); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestSessionCookieSecureFlag(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	cookie := CreateSessionCookie(r, SessionCookieName, "abc", time.Now().Add(time.Hour))
	if !cookie.Secure || !cookie.HttpOnly {
		t.Errorf("expected secure http-only cookie, got %+v", cookie)
	}
}
