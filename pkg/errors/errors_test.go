package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor_KnownCodes(t *testing.T) {
	meta := MetadataFor(CodeNotFound)
	if meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404 for not found, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("not found should not leak details")
	}

	meta = MetadataFor(CodeDependency)
	if meta.HTTPStatus != http.StatusServiceUnavailable || !meta.Retryable {
		t.Fatalf("unexpected dependency metadata: %+v", meta)
	}
}

func TestMetadataFor_UnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "provider call failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to match its cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Error() != "DEPENDENCY_ERROR: provider call failed" {
		t.Fatalf("unexpected Error() output %q", err.Error())
	}
}

func TestAs_FindsTypedError(t *testing.T) {
	inner := New(CodeStateConflict, "transaction already settled")
	wrapped := fmt.Errorf("reconcile: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestAs_NilForPlainErrors(t *testing.T) {
	if typed := As(stdErrors.New("plain")); typed != nil {
		t.Fatalf("expected nil, got %v", typed)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"phone_number": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["phone_number"] != "is required" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
