package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestCheckPasswordMalformedDigest(t *testing.T) {
	if err := CheckPassword("not-a-bcrypt-digest", "secret"); err == nil {
		t.Fatalf("expected malformed digest to fail verification")
	}
	if err := CheckPassword("", "secret"); err == nil {
		t.Fatalf("expected empty digest to fail verification")
	}
}

func TestRandomPassword(t *testing.T) {
	first, err := RandomPassword()
	if err != nil {
		t.Fatalf("random password error: %v", err)
	}
	second, err := RandomPassword()
	if err != nil {
		t.Fatalf("random password error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct random passwords")
	}
	if len(first) < 32 {
		t.Fatalf("expected at least 32 characters, got %d", len(first))
	}
}
