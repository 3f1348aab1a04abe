// This file defines the request DTOs for car mutations. The same CarInput is
// produced from a JSON body or an HTML form submission, so both surfaces feed
// one validation path.
package cars

import (
	"net/http"
	"strconv"
	"strings"
)

// CarInput carries the raw mutable fields of a car. Pointer fields distinguish
// "absent" from zero values so required-field checks work on both the JSON and
// form encodings. IsElectric is deliberately loose: it accepts a JSON boolean
// or the string "on" that HTML checkboxes submit.
type CarInput struct {
	Model        *string  `json:"model"`
	Year         *int     `json:"year"`
	MPG          *float64 `json:"mpg"`
	Notes        *string  `json:"notes"`
	Fuel         *string  `json:"fuel"`
	IsElectric   any      `json:"isElectric"`
	Transmission *string  `json:"transmission"`
}

// ModifyRequest is the JSON-API payload for /modify: the target record id plus
// a full set of replacement fields.
type ModifyRequest struct {
	ID *string `json:"id"`
	CarInput
}

// DeleteRequest is the JSON-API payload for /delete.
type DeleteRequest struct {
	ID *string `json:"id"`
}

// ElectricFlag coerces the boolean-like isElectric value. Anything other than
// a literal true or the checkbox strings "on"/"true" defaults to false.
func (in *CarInput) ElectricFlag() bool {
	switch v := in.IsElectric.(type) {
	case bool:
		return v
	case string:
		return v == "on" || v == "true"
	default:
		return false
	}
}

// CarInputFromForm builds a CarInput from an HTML form submission. Fields that
// are absent or blank stay nil; numeric fields that fail to parse also stay
// nil so the validator reports them as missing rather than masking the error.
func CarInputFromForm(r *http.Request) *CarInput {
	input := &CarInput{}

	if model := strings.TrimSpace(r.PostFormValue("model")); model != "" {
		input.Model = &model
	}
	if raw := strings.TrimSpace(r.PostFormValue("year")); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			input.Year = &year
		}
	}
	if raw := strings.TrimSpace(r.PostFormValue("mpg")); raw != "" {
		if mpg, err := strconv.ParseFloat(raw, 64); err == nil {
			input.MPG = &mpg
		}
	}
	if notes := r.PostFormValue("notes"); notes != "" {
		input.Notes = &notes
	}
	if fuel := r.PostFormValue("fuel"); fuel != "" {
		input.Fuel = &fuel
	}
	if transmission := r.PostFormValue("transmission"); transmission != "" {
		input.Transmission = &transmission
	}
	if electric := r.PostFormValue("isElectric"); electric != "" {
		input.IsElectric = electric
	}

	return input
}
