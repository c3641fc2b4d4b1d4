package auth

import (
	"context"
	"testing"
	"time"

	"github.com/worldskandi/call-companion-ai/internal/config"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "runtime-7", "runtime", "call-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "runtime-7" || claims.Role != "runtime" || claims.Room != "call-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredAndForeign(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	now := time.Now()
	tok, err := m.Issue(now, "d", "dispatcher", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token rejected")
	}

	other, _ := NewManager(config.AuthConfig{JWTSecret: "other", AccessTokenTTL: time.Minute})
	if _, err := other.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestIssueRequiresSubjectAndRole(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	if _, err := m.Issue(time.Now(), "", "runtime", ""); err == nil {
		t.Fatalf("expected error without subject")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := WithIdentity(context.Background(), "s", "runtime", "")
	if r, _ := Role(ctx); r != "runtime" {
		t.Fatalf("unexpected role %q", r)
	}
	if Room(ctx) != "" {
		t.Fatalf("expected unscoped token")
	}
	if _, err := Subject(context.Background()); err == nil {
		t.Fatalf("expected missing subject error")
	}
}
