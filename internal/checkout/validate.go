package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"voipshop/internal/domain"
)

// MaxPortedNumbers is the most numbers a single port request may carry.
const MaxPortedNumbers = 3

var (
	looseEmail = regexp.MustCompile(`.+@.+\..+`)
	nonDigit   = regexp.MustCompile(`\D`)
	zaGeo      = regexp.MustCompile(`^0[1-5]\d{8}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("zageo", func(fl validator.FieldLevel) bool {
		return IsGeographicNumber(fl.Field().String())
	})
	return v
}

// DigitsOnly strips everything but digits.
func DigitsOnly(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// IsGeographicNumber accepts South African geographic numbers: 0 followed by
// an area digit 1-5 and eight more digits, ignoring formatting.
func IsGeographicNumber(s string) bool {
	return zaGeo.MatchString(DigitsOnly(s))
}

// ValidationErrors maps a field to the rule it failed.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v ValidationErrors) Unwrap() error { return domain.ErrInvalidInput }

func fromValidator(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	out := make(ValidationErrors, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out[field] = fe.Tag()
	}
	return out
}

// Validate checks the customer block before any submission.
func Validate(c Customer) error {
	return fromValidator(validate.Struct(c))
}

func ValidateDebit(d DebitDetails) error {
	return fromValidator(validate.Struct(d))
}

func ValidatePort(p PortDetails) error {
	return fromValidator(validate.Struct(p))
}

type portingInput struct {
	Mode       string   `json:"mode" validate:"required,oneof=new port"`
	RegionCode string   `json:"regionCode" validate:"required_if=Mode new"`
	Numbers    []string `json:"numbers" validate:"max=3,dive,zageo"`
}

// ValidatePorting checks a number choice and returns it normalised: port
// numbers reduced to digits and de-duplicated, region cleared for ports.
func ValidatePorting(p domain.PortingChoice) (domain.PortingChoice, error) {
	in := portingInput{
		Mode:       strings.ToLower(strings.TrimSpace(string(p.Mode))),
		RegionCode: strings.TrimSpace(p.RegionCode),
		Numbers:    p.Numbers,
	}
	if err := fromValidator(validate.Struct(in)); err != nil {
		return domain.PortingChoice{}, err
	}
	if in.Mode == string(domain.PortingNew) && in.RegionCode == "0" {
		return domain.PortingChoice{}, ValidationErrors{"regionCode": "required"}
	}

	out := domain.PortingChoice{Mode: domain.PortingMode(in.Mode)}
	switch out.Mode {
	case domain.PortingNew:
		out.RegionCode = in.RegionCode
		out.Region = strings.TrimSpace(p.Region)
		out.Numbers = []string{}
	case domain.PortingPort:
		seen := make(map[string]struct{}, len(in.Numbers))
		for _, n := range in.Numbers {
			d := DigitsOnly(n)
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out.Numbers = append(out.Numbers, d)
		}
		if len(out.Numbers) == 0 {
			return domain.PortingChoice{}, ValidationErrors{"numbers": "required"}
		}
	}
	return out, nil
}
