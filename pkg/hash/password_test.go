package hash

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "123456" {
		t.Fatalf("hash must not equal the plain password")
	}
	if !CheckPasswordHash("123456", hashed) {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPasswordHash("654321", hashed) {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, _ := HashPassword("secret")
	b, _ := HashPassword("secret")
	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}
