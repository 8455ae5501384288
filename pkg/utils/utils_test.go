package utils

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/pkg/errno"
)

func TestParseObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	parsed, err := ParseObjectID(id.Hex())
	if err != nil {
		t.Fatalf("valid hex rejected: %v", err)
	}
	if parsed != id {
		t.Errorf("parsed %s, want %s", parsed.Hex(), id.Hex())
	}
}

func TestParseObjectIDMalformed(t *testing.T) {
	for _, in := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "deadbeef"} {
		_, err := ParseObjectID(in)
		var e errno.ErrNo
		if !errors.As(err, &e) || e.ErrCode != errno.InvalidIdentifierCode {
			t.Errorf("ParseObjectID(%q) = %v, want InvalidIdentifier", in, err)
		}
	}
}

func TestCryptRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt is slow")
	}
	hashed, err := Crypt("secret123")
	if err != nil {
		t.Fatalf("crypt failed: %v", err)
	}
	if hashed == "secret123" {
		t.Fatal("password stored in the clear")
	}
	if !VerifyPassword("secret123", hashed) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong", hashed) {
		t.Error("wrong password accepted")
	}
}
