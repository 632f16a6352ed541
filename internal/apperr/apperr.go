package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvalidState         Code = "INVALID_STATE"
	CodeIllegalTransition    Code = "ILLEGAL_TRANSITION"
	CodeCandidateUnavailable Code = "CANDIDATE_UNAVAILABLE"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// FieldError is one violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field, not just the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds at least one violation.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStateError reports an operation attempted on an entity whose current
// status does not accept it.
type InvalidStateError struct {
	Entity    string
	ID        string
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %s: cannot %s", e.Entity, e.ID, e.Current, e.Attempted)
}

// IllegalTransitionError reports a (from, to) pair outside the contract state
// machine's edge set for the acting role.
type IllegalTransitionError struct {
	ContractID string
	From       string
	To         string
	Reason     string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("contract %s: illegal transition %s -> %s", e.ContractID, e.From, e.To)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// CandidateUnavailableError means the candidate already holds an active
// assignment, usually because a concurrent assign won the race.
type CandidateUnavailableError struct {
	CandidateID string
	ContractID  string
}

func (e *CandidateUnavailableError) Error() string {
	return fmt.Sprintf("candidate %s is not available for contract %s", e.CandidateID, e.ContractID)
}

func NotFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

func InvalidState(entity, id, current, attempted string) error {
	return &InvalidStateError{Entity: entity, ID: id, Current: current, Attempted: attempted}
}

func IllegalTransition(contractID, from, to, reason string) error {
	return &IllegalTransitionError{ContractID: contractID, From: from, To: to, Reason: reason}
}

func CandidateUnavailable(candidateID, contractID string) error {
	return &CandidateUnavailableError{CandidateID: candidateID, ContractID: contractID}
}

// CodeOf classifies err. Unknown errors are internal.
func CodeOf(err error) Code {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ise *InvalidStateError
		ite *IllegalTransitionError
		cue *CandidateUnavailableError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &ise):
		return CodeInvalidState
	case errors.As(err, &ite):
		return CodeIllegalTransition
	case errors.As(err, &cue):
		return CodeCandidateUnavailable
	default:
		return CodeInternal
	}
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeIllegalTransition, CodeCandidateUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// Details returns the structured payload clients can render, or nil.
func Details(err error) map[string]any {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ise *InvalidStateError
		ite *IllegalTransitionError
		cue *CandidateUnavailableError
	)
	switch {
	case errors.As(err, &ve):
		return map[string]any{"fields": ve.Fields}
	case errors.As(err, &nf):
		return map[string]any{"entity": nf.Entity, "id": nf.ID}
	case errors.As(err, &ise):
		return map[string]any{"entity": ise.Entity, "id": ise.ID, "current_status": ise.Current, "attempted": ise.Attempted}
	case errors.As(err, &ite):
		d := map[string]any{"contract_id": ite.ContractID, "current_status": ite.From, "attempted_status": ite.To}
		if ite.Reason != "" {
			d["reason"] = ite.Reason
		}
		return d
	case errors.As(err, &cue):
		return map[string]any{"candidate_id": cue.CandidateID, "contract_id": cue.ContractID}
	}
	return nil
}
