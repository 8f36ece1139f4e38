package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
)

func makeHS256(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload, _ := json.Marshal(claims)
	h := base64.RawURLEncoding.EncodeToString(header)
	p := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(h + "." + p))
	return h + "." + p + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify_DevMode(t *testing.T) {
	v := &Verifier{Mode: "dev"}
	pr, err := v.Verify("t_agency:agent")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if pr.Tenant != "t_agency" || pr.Role != "agent" {
		t.Fatalf("principal: %+v", pr)
	}
	if _, err := v.Verify("no-role"); err == nil {
		t.Fatal("expected error for malformed dev token")
	}
}

func TestVerify_HMAC(t *testing.T) {
	v := &Verifier{
		Mode:        "hmac",
		HMACSecret:  []byte("secret"),
		TenantClaim: "tenant",
		RoleClaim:   "role",
		AgentClaim:  "sub",
	}
	tok := makeHS256(t, "secret", map[string]any{"tenant": "t1", "role": "Admin", "sub": "agent_9"})
	pr, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if pr.Tenant != "t1" || pr.Role != "admin" || pr.AgentID != "agent_9" {
		t.Fatalf("principal: %+v", pr)
	}
}

func TestVerify_HMAC_BadSignature(t *testing.T) {
	v := &Verifier{Mode: "hmac", HMACSecret: []byte("secret"), TenantClaim: "tenant", RoleClaim: "role", AgentClaim: "sub"}
	tok := makeHS256(t, "wrong-secret", map[string]any{"tenant": "t1", "role": "admin"})
	if _, err := v.Verify(tok); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestVerify_HMAC_MissingTenant(t *testing.T) {
	v := &Verifier{Mode: "hmac", HMACSecret: []byte("secret"), TenantClaim: "tenant", RoleClaim: "role", AgentClaim: "sub"}
	tok := makeHS256(t, "secret", map[string]any{"role": "admin"})
	if _, err := v.Verify(tok); err == nil {
		t.Fatal("expected missing tenant error")
	}
}
