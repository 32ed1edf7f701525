package filter

import (
	"errors"

	"github.com/raykavin/dexscout/pkg/core"
)

// ErrInvalidRecord is reported when a record carries values no rule can be applied to
var ErrInvalidRecord = errors.New("invalid token record")

// Reason explains why a record did not produce a decision
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonEmptyAddress  Reason = "empty_address"
	ReasonAlreadySent   Reason = "already_alerted"
	ReasonExcluded      Reason = "excluded_symbol"
	ReasonTooOld        Reason = "too_old"
	ReasonBelowCriteria Reason = "below_criteria"
	ReasonInvalid       Reason = "invalid_record"
)

// Outcome is the result of classifying a single record. Exactly one of Decision or
// Reason is meaningful: a qualified outcome has an empty Reason.
type Outcome struct {
	Decision core.Decision
	Reason   Reason
	Err      error
}

// Qualified reports whether the record produced an alert decision
func (o Outcome) Qualified() bool {
	return o.Reason == ReasonNone
}

func skip(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

func qualify(record core.TokenRecord, category core.Category) Outcome {
	return Outcome{Decision: core.Decision{Record: record, Category: category}}
}
