package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("star-sailor")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "star-sailor" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "star-sailor") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
	if CheckPassword("not-a-hash", "star-sailor") {
		t.Error("garbage hash accepted")
	}
}
