package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	identityRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	otpRe      = regexp.MustCompile(`^[0-9]{6}$`)
)

// v is the package-level singleton validator. Custom tags are registered in init()
// before the first call to Struct.
var v = validator.New()

func init() {
	// "identity": local part of an institutional address; never contains the token delimiter.
	_ = v.RegisterValidation("identity", func(fl validator.FieldLevel) bool {
		return identityRe.MatchString(fl.Field().String())
	})
	// "otp": six ASCII digits.
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpRe.MatchString(fl.Field().String())
	})
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Identity reports whether s is a well-formed identity.
func Identity(s string) bool {
	return identityRe.MatchString(s)
}
