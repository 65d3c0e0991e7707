package models_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/mmynk/calories/internal/models"
)

func TestNormalizeUsername(t *testing.T) {
	c := qt.New(t)

	// Fullwidth letters and the "fi" ligature fold to their ASCII forms.
	c.Assert(models.NormalizeUsername("ａｌｉｃｅ"), qt.Equals, "alice")
	c.Assert(models.NormalizeUsername("ﬁona"), qt.Equals, "fiona")
	c.Assert(models.NormalizeUsername("bob"), qt.Equals, "bob")
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "plain", input: "alice", want: nil},
		{name: "allowed punctuation", input: "a.b@c+d-e_f", want: nil},
		{name: "unicode letters", input: "zoë", want: nil},
		{name: "empty", input: "", want: models.ErrUsernameRequired},
		{name: "space", input: "al ice", want: models.ErrUsernameInvalid},
		{name: "slash", input: "al/ice", want: models.ErrUsernameInvalid},
		{name: "max length", input: strings.Repeat("a", models.MaxUsernameLength), want: nil},
		{name: "too long", input: strings.Repeat("a", models.MaxUsernameLength+1), want: models.ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			err := models.ValidateUsername(tt.input)
			if tt.want == nil {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorIs, tt.want)
		})
	}
}
