package push

import (
	"encoding/base64"
	"testing"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("expected non-empty keys")
	}

	// Public key is an uncompressed P-256 point: 65 bytes.
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}
	if pubBytes[0] != 0x04 {
		t.Errorf("public key prefix = %#x, want 0x04 (uncompressed)", pubBytes[0])
	}

	if _, err := base64.RawURLEncoding.DecodeString(priv); err != nil {
		t.Fatalf("decode private key: %v", err)
	}

	// Two calls must not collide.
	pub2, _, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate second pair: %v", err)
	}
	if pub == pub2 {
		t.Error("two generated key pairs are identical")
	}
}

func TestServiceExposesPublicKey(t *testing.T) {
	svc := NewService("public-key", "private-key")
	if svc.VAPIDPublicKey() != "public-key" {
		t.Errorf("VAPIDPublicKey() = %q", svc.VAPIDPublicKey())
	}
}
