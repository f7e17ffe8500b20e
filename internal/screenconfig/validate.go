package screenconfig

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var hhmm = regexp.MustCompile(`^\d{2}:\d{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report yaml paths rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError is a configuration failure that must stop startup
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(fieldErrs[0])
		}
		return err
	}

	// === Window ===
	if err := validateHHMM(cfg.Window.Start); err != nil {
		return ValidationError{"window.start", err.Error()}
	}
	if err := validateHHMM(cfg.Window.End); err != nil {
		return ValidationError{"window.end", err.Error()}
	}
	startTime, _ := time.Parse("15:04", cfg.Window.Start)
	endTime, _ := time.Parse("15:04", cfg.Window.End)
	if !startTime.Before(endTime) {
		return ValidationError{"window", "start must be before end"}
	}
	if _, err := cfg.Window.Location(); err != nil {
		return ValidationError{"window.timezone", err.Error()}
	}

	// === Criteria ===
	c := cfg.Criteria
	if c.PriceMin != nil && *c.PriceMin >= c.PriceMax {
		return ValidationError{"criteria.price_min", "must be below price_max"}
	}
	if c.MarketCapMin != nil && *c.MarketCapMin >= c.MarketCapMax {
		return ValidationError{"criteria.market_cap_min", "must be below market_cap_max"}
	}

	return nil
}

func toValidationError(fe validator.FieldError) ValidationError {
	// Namespace is "Config.criteria.price_max"; drop the root type
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "oneof":
		msg = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		msg = "must have at least " + fe.Param() + " entries"
	case "gt":
		msg = "must be > " + fe.Param()
	case "gte":
		msg = "must be >= " + fe.Param()
	case "lte":
		msg = "must be <= " + fe.Param()
	default:
		msg = "failed validation: " + fe.Tag()
	}
	return ValidationError{Field: field, Message: msg}
}

func validateHHMM(s string) error {
	if !hhmm.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}
