package model

import (
	"errors"
	"strings"
)

// ErrInvalidRecord is matched by every *ValidationError.
var ErrInvalidRecord = errors.New("record has missing mandatory fields")

// ValidationError lists the mandatory fields that are still missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing mandatory fields: " + strings.Join(e.Missing, ", ")
}

// Is makes errors.Is(err, ErrInvalidRecord) true for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// MissingFields returns the names of mandatory fields that are not set.
//
// Validation is derived from the current field values every time:
//   - Build Number, Device, Build Type and Android Version must not be
//     placeholders (build number and device are exempt on auto-completed
//     records, where they were inferred from file names)
//   - at least one release channel must be selected
//   - Built by, Reviewed by and the approval date must be set
//   - none of the default tests may be left Pending
func (r *Record) MissingFields() []string {
	var missing []string

	if !r.AutoCompleted && IsPlaceholder(r.BuildNumber) {
		missing = append(missing, "Build Number")
	}
	if !r.AutoCompleted && IsPlaceholder(r.Device) {
		missing = append(missing, "Device")
	}
	if IsPlaceholder(string(r.BuildType)) {
		missing = append(missing, "Build Type")
	}
	if IsPlaceholder(r.AndroidVersion) {
		missing = append(missing, "Android Version")
	}
	if !r.InternalTesting && !r.CustomerRelease {
		missing = append(missing, "Recommended For")
	}
	if IsPlaceholder(r.BuiltBy) {
		missing = append(missing, "Built by")
	}
	if IsPlaceholder(r.ReviewedBy) {
		missing = append(missing, "Reviewed by")
	}
	if r.ApprovedForRelease == nil {
		missing = append(missing, "Approved Date")
	}

	for _, name := range DefaultTests {
		for _, tr := range r.TestResults {
			if tr.Name == name && tr.Result == ResultPending {
				missing = append(missing, name)
				break
			}
		}
	}

	return missing
}

// Validate returns a *ValidationError when mandatory fields are missing.
func (r *Record) Validate() error {
	if missing := r.MissingFields(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// IsValid reports whether the record passes validation.
func (r *Record) IsValid() bool {
	return r.Validate() == nil
}
