package security

import "testing"

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(4) // minimum cost keeps the test fast
	hash, err := h.Hash([]byte("password123"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash equals plaintext")
	}
	if err := h.Compare(hash, []byte("password123")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong-password")); err == nil {
		t.Error("Compare with wrong password: err = nil, want error")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	hash := HashRefreshToken("some.refresh.token")
	if hash == "" || hash == "some.refresh.token" {
		t.Fatalf("hash = %q", hash)
	}
	if !RefreshTokenHashEqual("some.refresh.token", hash) {
		t.Error("matching token not equal to its hash")
	}
	if RefreshTokenHashEqual("other.token", hash) {
		t.Error("different token matched the hash")
	}
}
