package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeMalformedInput, "table has %d rows", 1),
			want: "MALFORMED_INPUT: table has 1 rows",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeUnreadableSource, stderrors.New("permission denied"), "read fleet.json"),
			want: "UNREADABLE_SOURCE: read fleet.json: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "unsupported extension: .xls")

	if !Is(err, ErrCodeInvalidFormat) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeMalformedInput) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeInvalidFormat) {
		t.Error("Is should not match a non-structured error")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeMalformedInput, "header count below required columns")
	outer := fmt.Errorf("load: %w", inner)

	if !Is(outer, ErrCodeMalformedInput) {
		t.Error("Is should unwrap fmt.Errorf chains")
	}
	if GetCode(outer) != ErrCodeMalformedInput {
		t.Errorf("GetCode = %q, want MALFORMED_INPUT", GetCode(outer))
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeMalformedInput, "the table does not contain enough data")
	if got := UserMessage(err); got != "the table does not contain enough data" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := stderrors.New("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage for plain error = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk failure")
	err := Wrap(ErrCodeUnreadableSource, cause, "read source")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}
