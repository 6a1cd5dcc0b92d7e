// Package forms validates user input before any request is sent and derives
// which booking form fields may be edited.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/example/meeting-room-portal/internal/model"
)

const tagEndAfterStart = "endafterstart"

var clockLayouts = []string{"15:04", "15:04:05"}

// labels overrides the generated field label per struct namespace.
var labels = map[string]string{
	"CreateRoomRequest.name": "Room name",
	"UpdateRoomRequest.name": "Room name",
	"roomId":                 "Room",
}

// Validator checks forms against their validate tags.
type Validator struct {
	validate *validator.Validate
}

// New constructs a Validator with the clock format and booking time range
// rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return lowerFirst(field.Name)
		}
		return name
	})
	if err := validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := parseClock(fl.Field().String())
		return ok
	}); err != nil {
		panic(fmt.Sprintf("forms: register clock validation: %v", err))
	}
	validate.RegisterStructValidation(createBookingRange, model.CreateBookingRequest{})
	validate.RegisterStructValidation(updateBookingRange, model.UpdateBookingRequest{})
	return &Validator{validate: validate}
}

// Validate checks form and returns a *ValidationError listing every failing
// field, or nil.
func (v *Validator) Validate(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	result := &ValidationError{}
	for _, fe := range fieldErrors {
		result.add(fe.Field(), message(fe))
	}
	return result
}

// Login validates login credentials.
func (v *Validator) Login(req model.LoginRequest) error { return v.Validate(req) }

// Register validates a registration form.
func (v *Validator) Register(req model.RegisterRequest) error { return v.Validate(req) }

// CreateBooking validates a new booking, including that it ends after it starts.
func (v *Validator) CreateBooking(req model.CreateBookingRequest) error { return v.Validate(req) }

// UpdateBooking validates a partial booking update.
func (v *Validator) UpdateBooking(req model.UpdateBookingRequest) error { return v.Validate(req) }

// CreateRoom validates a new room.
func (v *Validator) CreateRoom(req model.CreateRoomRequest) error { return v.Validate(req) }

// UpdateRoom validates a partial room update.
func (v *Validator) UpdateRoom(req model.UpdateRoomRequest) error { return v.Validate(req) }

// Filters validates booking listing filters.
func (v *Validator) Filters(filters model.BookingFilters) error { return v.Validate(filters) }

func createBookingRange(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.CreateBookingRequest)
	reportRange(sl, req.StartTime, req.EndTime)
}

func updateBookingRange(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.UpdateBookingRequest)
	if req.StartTime == nil || req.EndTime == nil {
		return
	}
	reportRange(sl, *req.StartTime, *req.EndTime)
}

// reportRange flags endTime unless both times parse and end is after start.
// Unparseable values are left to the clock rule.
func reportRange(sl validator.StructLevel, start, end string) {
	startAt, okStart := parseClock(start)
	endAt, okEnd := parseClock(end)
	if !okStart || !okEnd {
		return
	}
	if !endAt.After(startAt) {
		sl.ReportError(end, "endTime", "EndTime", tagEndAfterStart, "")
	}
}

func parseClock(value string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func message(fe validator.FieldError) string {
	label := labelFor(fe)
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "clock":
		return label + " must be a time in HH:MM format"
	case tagEndAfterStart:
		return "End time must be after start time"
	}
	return label + " is invalid"
}

func labelFor(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if _, field, ok := strings.Cut(namespace, "."); ok {
		structName, _, _ := strings.Cut(namespace, ".")
		if label, ok := labels[structName+"."+field]; ok {
			return label
		}
	}
	if label, ok := labels[fe.Field()]; ok {
		return label
	}
	return humanize(fe.Field())
}

// humanize turns a camelCase field name into a sentence-case label.
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
