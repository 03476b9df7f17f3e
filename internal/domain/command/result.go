package command

// Kind is the stable machine-readable discriminator of a command outcome.
type Kind string

const (
	KindOK Kind = "OK"

	KindInvalidCommand           Kind = "INVALID_COMMAND"
	KindUsernameExists           Kind = "USERNAME_ALREADY_EXISTS"
	KindEmailExists              Kind = "EMAIL_ALREADY_EXISTS"
	KindUsernameEmailComboExists Kind = "USERNAME_EMAIL_COMBO_ALREADY_EXISTS"
	KindIDNotFound               Kind = "ID_NOT_FOUND"
	KindPasswordMismatch         Kind = "PASSWORD_MISMATCH"
	KindEmailVerificationFailed  Kind = "EMAIL_VERIFICATION_FAILED"
	KindIllegalStateTransition   Kind = "ILLEGAL_STATE_TRANSITION"
	KindConcurrencyConflict      Kind = "CONCURRENCY_CONFLICT"
	KindInternalError            Kind = "INTERNAL_ERROR"
)

// Result is the terminal outcome of processing one command.
type Result struct {
	Kind Kind
	// AggregateID is set on successful RegisterUser.
	AggregateID string
	// Message is an internal diagnostic, distinct from user-facing text.
	Message string
}

// AggregateIDResult is a success carrying the new aggregate identifier.
func AggregateIDResult(id string) Result {
	return Result{Kind: KindOK, AggregateID: id}
}

// VoidSuccess is a success with no payload.
func VoidSuccess() Result {
	return Result{Kind: KindOK}
}

// Failure builds a typed failure result.
func Failure(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// Success reports whether the command succeeded.
func (r Result) Success() bool { return r.Kind == KindOK }

// Retryable reports whether the caller may retry the command as-is.
func (r Result) Retryable() bool { return r.Kind == KindConcurrencyConflict }
