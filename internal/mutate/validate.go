package mutate

import (
	"unicode/utf8"

	"todolists/internal/model"
)

const (
	MinNameLength = 1
	MaxNameLength = 100
)

func validLength(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinNameLength && n <= MaxNameLength
}

// ValidateListName checks length and uniqueness against every existing list,
// the list being renamed included.
func ValidateListName(name string, lists []model.List) error {
	if !validLength(name) {
		return ValidationError{Err: ErrInvalidLength, Message: "The list name must be between 1 and 100 characters."}
	}
	for _, l := range lists {
		if l.Name == name {
			return ValidationError{Err: ErrDuplicateName, Message: "List name must be unique."}
		}
	}
	return nil
}

func ValidateTodoName(name string) error {
	if !validLength(name) {
		return ValidationError{Err: ErrInvalidLength, Message: "The todo must be between 1 and 100 characters."}
	}
	return nil
}
