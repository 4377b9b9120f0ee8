// Package records defines the FLAT and HOUSE records carried by change
// events and a small REST client for loading their authoritative state.
//
// The realtime core never calls into this package. Consumers use it to
// decode event payloads into typed records and to reload a record after
// a change notification.
package records

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agentstation/homewire/pkg/errors"
)

// Furnish describes how a flat is furnished.
type Furnish string

// Furnish values.
const (
	FurnishDesigner Furnish = "DESIGNER"
	FurnishFine     Furnish = "FINE"
	FurnishBad      Furnish = "BAD"
	FurnishLittle   Furnish = "LITTLE"
)

// View describes the view from a flat.
type View string

// View values.
const (
	ViewStreet   View = "STREET"
	ViewYard     View = "YARD"
	ViewBad      View = "BAD"
	ViewGood     View = "GOOD"
	ViewTerrible View = "TERRIBLE"
)

// MaxFlatPrice is the highest price the backend accepts.
const MaxFlatPrice = 581208244

// Coordinates locate a flat.
type Coordinates struct {
	ID int64   `json:"id,omitempty" yaml:"id,omitempty"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

// House is a building that contains flats.
type House struct {
	ID                   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name                 string `json:"name" yaml:"name" validate:"required"`
	Year                 int    `json:"year" yaml:"year" validate:"gte=1800"`
	NumberOfFlatsOnFloor int    `json:"numberOfFlatsOnFloor" yaml:"numberOfFlatsOnFloor" validate:"gte=1,lte=20"`
}

// Flat is a single apartment.
type Flat struct {
	ID                int64       `json:"id,omitempty" yaml:"id,omitempty"`
	Name              string      `json:"name" yaml:"name" validate:"required"`
	Coordinates       Coordinates `json:"coordinates" yaml:"coordinates"`
	CreationDate      string      `json:"creationDate,omitempty" yaml:"creationDate,omitempty"`
	Area              float64     `json:"area" yaml:"area" validate:"gt=0"`
	Price             float64     `json:"price" yaml:"price" validate:"gt=0,lte=581208244"`
	Balcony           *bool       `json:"balcony,omitempty" yaml:"balcony,omitempty"`
	TimeToMetroOnFoot float64     `json:"timeToMetroOnFoot" yaml:"timeToMetroOnFoot" validate:"gt=0"`
	NumberOfRooms     int         `json:"numberOfRooms" yaml:"numberOfRooms" validate:"gte=1,lte=13"`
	LivingSpace       float64     `json:"livingSpace" yaml:"livingSpace" validate:"gt=0"`
	Furnish           Furnish     `json:"furnish" yaml:"furnish" validate:"required,oneof=DESIGNER FINE BAD LITTLE"`
	View              View        `json:"view" yaml:"view" validate:"required,oneof=STREET YARD BAD GOOD TERRIBLE"`
	Floor             int         `json:"floor" yaml:"floor"`
	House             *House      `json:"house,omitempty" yaml:"house,omitempty" validate:"omitempty"`
}

// Record is any record type a change event can carry.
type Record interface {
	Flat | House
}

// use a single instance of Validate, it caches struct info
var validate = validator.New()

// Validate checks a record against the backend's field rules. The first
// failing field is reported as a *errors.ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.WrapValidation("record", err)
	}
	fe := fieldErrs[0]
	return errors.NewValidationError(fieldPath(fe.Namespace()), fe.Value(), describe(fe))
}

// fieldPath drops the struct name from a validator namespace such as
// "Flat.House.Year" and lower-cases the first letter of each segment.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
