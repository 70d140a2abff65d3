package houseparty

import "errors"

// Kind classifies a rejected action so callers can tell which
// precondition failed.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindConflict  Kind = "conflict"
	KindInvalid   Kind = "invalid_input"
	KindLocked    Kind = "locked"
)

// Error is a domain failure with a stable machine code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error with the same code, so errors built by Invalid
// compare equal to ErrInvalidInput.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrPartyNotFound    = newError(KindNotFound, "party_not_found", "party not found")
	ErrGuestNotFound    = newError(KindNotFound, "guest_not_found", "guest not found")
	ErrGameNotFound     = newError(KindNotFound, "game_not_found", "game not found")
	ErrGridNotFound     = newError(KindNotFound, "grid_not_found", "squares grid not found")
	ErrClaimNotFound    = newError(KindNotFound, "claim_not_found", "square is not claimed by this guest")
	ErrTemplateNotFound = newError(KindNotFound, "template_not_found", "template not found")

	ErrNotHost     = newError(KindForbidden, "not_host", "only the host can do that")
	ErrHostRemoval = newError(KindForbidden, "host_removal", "the host cannot be removed")
	ErrNotSelf     = newError(KindForbidden, "not_self", "guests can only change their own settings")
	ErrNotOwner    = newError(KindForbidden, "not_owner", "square belongs to another guest")

	ErrCodeTaken        = newError(KindConflict, "code_taken", "party code already in use")
	ErrGridExists       = newError(KindConflict, "grid_exists", "squares grid already exists")
	ErrCellTaken        = newError(KindConflict, "cell_taken", "square already claimed")
	ErrNumbersDrawn     = newError(KindConflict, "numbers_drawn", "numbers have already been drawn")
	ErrNoClaims         = newError(KindConflict, "no_claims", "no squares have been claimed")
	ErrNoEligibleGuests = newError(KindConflict, "no_eligible_guests", "no guests opted in to squares")

	ErrPartyLocked = newError(KindLocked, "party_locked", "party is locked")
	ErrGameScored  = newError(KindLocked, "game_scored", "game has already been scored")

	ErrInvalidInput = newError(KindInvalid, "invalid_input", "invalid input")
)

// ErrCreateParty wraps failures to establish a new party.
var ErrCreateParty = errors.New("creating party")

// Invalid returns an invalid-input error carrying msg.
func Invalid(msg string) error {
	return newError(KindInvalid, ErrInvalidInput.Code, msg)
}

// KindOf reports the kind of the first *Error in err's chain, or "" for
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
