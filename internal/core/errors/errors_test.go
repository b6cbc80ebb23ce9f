package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := Newf(CodeDuplicateSymbol, "symbol %q already defined", "Foo").
			WithContext(CtxSymbol, "Foo").
			WithContext(CtxModule, "crate::net")
		expected := `[DUPLICATE_SYMBOL] symbol "Foo" already defined {module=crate::net symbol=Foo}`
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		if !IsCode(err, CodeInternal) {
			t.Error("expected IsCode to return true for wrapped CodeInternal")
		}
	})

	t.Run("HasCodeSeesInnerCodes", func(t *testing.T) {
		inner := New(CodeUnresolvedSymbol, "no such name")
		outer := Wrap(fmt.Errorf("classify: %w", inner), CodeInvalidTypeUsage, "bad type")
		if !IsCode(outer, CodeInvalidTypeUsage) {
			t.Error("expected outer code to be INVALID_TYPE_USAGE")
		}
		if !HasCode(outer, CodeUnresolvedSymbol) {
			t.Error("expected HasCode to find the wrapped UNRESOLVED_SYMBOL")
		}
		if CodeOf(outer) != CodeInvalidTypeUsage {
			t.Errorf("unexpected CodeOf: %s", CodeOf(outer))
		}
		if CodeOf(errors.New("plain")) != CodeInternal {
			t.Error("expected plain errors to map to INTERNAL_ERROR")
		}
	})

	t.Run("AddContextOnPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxFile, "lib.rs")
		if !IsCode(err, CodeInternal) {
			t.Fatalf("expected plain error to be wrapped as internal, got %v", err)
		}
	})
}
