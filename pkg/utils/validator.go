package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/councilworks/finance-portal/internal/domain/apperr"
)

var (
	// IFSC: 4 uppercase letters, a literal '0', 6 alphanumerics.
	ifscRegex = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

	// Account number: 9 to 18 digits.
	accountNumberRegex = regexp.MustCompile(`^[0-9]{9,18}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field paths by json tag so error output matches the API
	// payload shape.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscRegex.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("bank_account", func(fl validator.FieldLevel) bool {
		return accountNumberRegex.MatchString(fl.Field().String())
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateStruct runs struct-tag validation and converts failures into a
// single validation error listing the offending field paths.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			// Namespace includes the struct name prefix; drop it.
			path := fe.Namespace()
			if i := strings.Index(path, "."); i >= 0 {
				path = path[i+1:]
			}
			fields = append(fields, path)
		}
		return apperr.Validation("invalid or missing fields", fields...)
	}
	return apperr.Wrap(apperr.KindValidation, "validation failed", err)
}

// ValidateIFSC checks a standalone IFSC code.
func ValidateIFSC(code string) error {
	if !ifscRegex.MatchString(code) {
		return apperr.Validation("invalid IFSC code", "bank_details.ifsc_code")
	}
	return nil
}

// ValidateAccountNumber checks a standalone bank account number.
func ValidateAccountNumber(n string) error {
	if !accountNumberRegex.MatchString(n) {
		return apperr.Validation("invalid account number", "bank_details.account_number")
	}
	return nil
}
