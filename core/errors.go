package core

import "errors"

// Error kinds. Every failure returned by a game operation matches exactly one
// of these through errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStateConflict     = errors.New("state conflict")
	// ErrNotFound is returned when a requested object does not exist in storage.
	ErrNotFound = errors.New("not found")
)

// GameError is a specific precondition failure tagged with its kind.
type GameError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *GameError {
	return &GameError{kind: kind, msg: msg}
}

func (e *GameError) Error() string { return e.msg }

// Kind returns the error kind sentinel.
func (e *GameError) Kind() error { return e.kind }

// Is makes errors.Is(err, ErrUnauthorized) hold for ErrNotOwner and friends.
func (e *GameError) Is(target error) bool {
	return target == e.kind
}

var (
	ErrInvalidClass    = newError(ErrInvalidInput, "invalid warrior class")
	ErrInvalidName     = newError(ErrInvalidInput, "invalid warrior name")
	ErrInvalidAmount   = newError(ErrInvalidInput, "amount must be > 0")
	ErrInvalidAddress  = newError(ErrInvalidInput, "invalid address")
	ErrPriceTooLow     = newError(ErrInvalidInput, "price below minimum")
	ErrIncorrectPrice  = newError(ErrInvalidInput, "incorrect price")
	ErrPaymentRequired = newError(ErrInvalidInput, "must send payment")
	ErrSelfDealing     = newError(ErrInvalidInput, "cannot trade with yourself")
	ErrOverflow        = newError(ErrInvalidInput, "amount overflows")
	ErrValueRejected   = newError(ErrInvalidInput, "operation does not accept payment")

	ErrNotOwner            = newError(ErrUnauthorized, "not the owner")
	ErrNotSeller           = newError(ErrUnauthorized, "not the seller")
	ErrNotApproved         = newError(ErrUnauthorized, "marketplace not approved")
	ErrNotAuthorizedCaller = newError(ErrUnauthorized, "not authorized game contract")
	ErrNotAdmin            = newError(ErrUnauthorized, "not the administrator")

	ErrInsufficientBalance = newError(ErrInsufficientFunds, "insufficient balance")

	ErrAlreadyQueued       = newError(ErrStateConflict, "already in queue")
	ErrAlreadyListed       = newError(ErrStateConflict, "already listed")
	ErrNotListed           = newError(ErrStateConflict, "not listed")
	ErrSellerNoLongerOwner = newError(ErrStateConflict, "seller no longer owns warrior")
	ErrApprovalRevoked     = newError(ErrStateConflict, "marketplace approval revoked")
	ErrLowHealth           = newError(ErrStateConflict, "warrior health too low to battle")
	ErrWarriorBusy         = newError(ErrStateConflict, "warrior is queued or listed")

	ErrWarriorNotFound = newError(ErrNotFound, "warrior not found")
	ErrBattleNotFound  = newError(ErrNotFound, "battle not found")
)

// KindOf returns the kind sentinel of err, or nil when err carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrInvalidInput, ErrUnauthorized, ErrInsufficientFunds, ErrStateConflict, ErrNotFound} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
