package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var plateRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

func init() {
	// plate matches a normalized plate: uppercase alphanumerics only.
	validate.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return plateRegex.MatchString(fl.Field().String())
	})

	// clock matches an "HH:MM" schedule bound.
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})

	// daymask matches a days_active bitmask, bit 0 = Sunday.
	validate.RegisterValidation("daymask", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= 1 && v <= 0x7F
	})

	// tz matches an IANA timezone name.
	validate.RegisterValidation("tz", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
