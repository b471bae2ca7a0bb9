package passhash

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	enc, err := hashWithIters("hunter2", 1_000) // low iterations to keep the test fast
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(enc, "pbkdf2_sha256$1000$") {
		t.Fatalf("encoded = %q", enc)
	}

	ok, err := VerifyPassword("hunter2", enc)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword = %v, %v", ok, err)
	}

	ok, err = VerifyPassword("wrong", enc)
	if err != nil || ok {
		t.Fatalf("wrong password verified: %v, %v", ok, err)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, enc := range []string{
		"",
		"bcrypt$whatever",
		"pbkdf2_sha256$abc$salt$dk",
		"pbkdf2_sha256$1000$only-two-parts",
	} {
		if ok, err := VerifyPassword("x", enc); ok || err == nil {
			t.Errorf("VerifyPassword(%q) = %v, %v; want rejection", enc, ok, err)
		}
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := hashWithIters("same", 1_000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := hashWithIters("same", 1_000)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ by salt")
	}
}
