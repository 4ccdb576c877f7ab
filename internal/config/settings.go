package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/molishai/internal/model"
)

const (
	// DefaultBits is the entropy requested when none is given.
	DefaultBits = 56
	// MaxBits bounds a single request.
	MaxBits = 500
	// DefaultRows matches the number of rows on one screen.
	DefaultRows = 8
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// ErrInvalidBits marks an unusable bit count. Callers fall back to
// DefaultBits and warn.
var ErrInvalidBits = errors.New("invalid bit count")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ResolveBits parses a requested bit count. Empty input selects the default
// silently. Input that is not an integer in [0, MaxBits] yields DefaultBits
// together with an error matching ErrInvalidBits.
func ResolveBits(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBits, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultBits, fmt.Errorf("%w: %q is not an integer", ErrInvalidBits, raw)
	}
	if err := CheckBits(n); err != nil {
		return DefaultBits, err
	}
	return n, nil
}

// CheckBits reports whether n is within [0, MaxBits].
func CheckBits(n int) error {
	if n < 0 || n > MaxBits {
		return fmt.Errorf("%w: %d is outside [0, %d]", ErrInvalidBits, n, MaxBits)
	}
	return nil
}

// Defaults returns the settings used when neither flags nor the config file
// say otherwise.
func Defaults() model.Config {
	return model.Config{
		Bits:     DefaultBits,
		Rows:     DefaultRows,
		Audit:    true,
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
	}
}

// Validate checks settings after flags and file values are merged.
func Validate(cfg model.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := flagName(fe.Field())
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required_if":
		return fmt.Sprintf("%s is required", name)
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}

func flagName(field string) string {
	switch field {
	case "Bits":
		return "--bits"
	case "Rows":
		return "--rows"
	case "DBPath":
		return "--db"
	case "LogLevel":
		return "--log-level"
	default:
		return strings.ToLower(field)
	}
}
