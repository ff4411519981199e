package mutate

import (
	"errors"
	"strings"
	"testing"

	"todolists/internal/model"
)

func TestValidateListName(t *testing.T) {
	t.Parallel()

	existing := []model.List{{Name: "Home"}, {Name: "Work"}}
	cases := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"single char", "a", nil},
		{"max length", strings.Repeat("x", 100), nil},
		{"multibyte counts characters", strings.Repeat("é", 100), nil},
		{"empty", "", ErrInvalidLength},
		{"too long", strings.Repeat("x", 101), ErrInvalidLength},
		{"duplicate", "Home", ErrDuplicateName},
		{"case sensitive", "home", nil},
	}
	for _, tc := range cases {
		err := ValidateListName(tc.in, existing)
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestValidateListName_Messages(t *testing.T) {
	t.Parallel()

	if err := ValidateListName("", nil); err == nil || err.Error() != "The list name must be between 1 and 100 characters." {
		t.Fatalf("unexpected length message: %v", err)
	}
	if err := ValidateListName("Home", []model.List{{Name: "Home"}}); err == nil || err.Error() != "List name must be unique." {
		t.Fatalf("unexpected duplicate message: %v", err)
	}
	var ve ValidationError
	if !errors.As(ValidateTodoName(""), &ve) || ve.Message != "The todo must be between 1 and 100 characters." {
		t.Fatalf("unexpected todo validation error: %#v", ve)
	}
}

func TestValidateTodoName(t *testing.T) {
	t.Parallel()

	if err := ValidateTodoName("Buy milk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateTodoName(strings.Repeat("x", 101)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if errors.Is(ValidateTodoName(""), ErrDuplicateName) {
		t.Fatalf("todo validation never reports duplicates")
	}
}
