package booking

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"wedbook/models"

	"github.com/go-playground/validator/v10"
)

// loosePhone accepts the usual separators; digits are counted separately.
var loosePhone = regexp.MustCompile(`^\+?[0-9\s\-().]{7,25}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// report fields under their JSON names, as the form knows them
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("loose_phone", func(fl validator.FieldLevel) bool {
			return IsLoosePhone(fl.Field().String())
		})
		_ = v.RegisterValidation("budget_range", func(fl validator.FieldLevel) bool {
			return slices.Contains(models.BudgetRanges, fl.Field().String())
		})
		validate = v
	})
	return validate
}

// IsLoosePhone reports whether s looks enough like a phone number to call it.
func IsLoosePhone(s string) bool {
	s = strings.TrimSpace(s)
	if !loosePhone.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// ValidateRequest checks a request locally. It returns nil or a *ValidationError.
// The event date must fall strictly after today's date as seen at now.
func ValidateRequest(req *models.BookingRequest, now time.Time) error {
	fields := make(map[string]string)

	err := requestValidator().Struct(req)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
	} else if err != nil {
		return err
	}

	if _, bad := fields["eventDate"]; !bad && req.EventDate != "" {
		today := now.Format(models.DateLayout)
		// both are YYYY-MM-DD, so string order is calendar order
		if req.EventDate <= today {
			fields["eventDate"] = "must be a future date"
		}
	}
	if _, bad := fields["eventEndTime"]; !bad && req.EventTime != "" && req.EventEndTime != "" && req.EventEndTime <= req.EventTime {
		fields["eventEndTime"] = "must be after the start time"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		if fe.Param() == "15:04" {
			return "must be a time in HH:MM format"
		}
		return "must be a date in YYYY-MM-DD format"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "loose_phone":
		return "must be a valid phone number"
	case "budget_range":
		return "must be one of " + strings.Join(models.BudgetRanges, ", ")
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
