package errors

import "testing"

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestTokenErrorsAreDistinct(t *testing.T) {
	if IsTokenReuse(ErrInvalidToken) {
		t.Fatal("invalid token must not read as reuse")
	}
	if IsTokenExpired(ErrInvalidToken) {
		t.Fatal("invalid token must not read as expired")
	}
	if !IsTokenReuse(ErrTokenReuse) || !IsTokenExpired(ErrTokenExpired) {
		t.Fatal("sentinels must match themselves")
	}
}
