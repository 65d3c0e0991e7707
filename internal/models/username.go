package models

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxUsernameLength bounds Account.Username, in characters.
const MaxUsernameLength = 150

var (
	ErrUsernameRequired = errors.New("this field may not be blank")
	ErrUsernameTooLong  = errors.New("ensure this field has no more than 150 characters")
	ErrUsernameInvalid  = errors.New("enter a valid username; it may contain only letters, numbers, and @/./+/-/_ characters")
)

var usernamePattern = regexp.MustCompile(`^[\pL\pN_.@+-]+$`)

// NormalizeUsername returns the NFKC form of name. Usernames are stored and
// looked up in this form so visually identical names collide.
func NormalizeUsername(name string) string {
	return norm.NFKC.String(name)
}

// ValidateUsername checks an already normalised username.
func ValidateUsername(name string) error {
	switch {
	case name == "":
		return ErrUsernameRequired
	case utf8.RuneCountInString(name) > MaxUsernameLength:
		return ErrUsernameTooLong
	case !usernamePattern.MatchString(name):
		return ErrUsernameInvalid
	}
	return nil
}
