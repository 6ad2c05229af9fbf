package commands

import (
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/errs"
)

// Business taxonomy: typed, expected outcomes returned to the caller, never
// logged as defects. ErrAlreadyMatched and ErrExpired are the normal shape of
// losing a concurrency race; callers re-read state instead of retrying
// blindly. ErrStoreUnavailable is the one infrastructure fault that escapes
// the persistence boundary, after its bounded retries are exhausted.
var (
	ErrValidation       = errs.New("validation failed")
	ErrRequestNotFound  = errs.New("request not found")
	ErrOfferNotFound    = errs.New("offer not found")
	ErrBookingNotFound  = errs.New("booking not found")
	ErrInvalidState     = errs.New("operation not allowed in current lifecycle state")
	ErrAlreadyMatched   = errs.New("request already matched")
	ErrExpired          = errs.New("offer or request has expired")
	ErrDuplicateOffer   = errs.New("provider already holds a pending offer on this request")
	ErrNotOwner         = errs.New("caller does not own this resource")
	ErrStoreUnavailable = errs.New("store unavailable")
)

// mapStoreErr translates repository kinds that can surface from a critical
// section into the business taxonomy. Kinds not listed pass through so the
// caller sees sentinel errors fn already chose.
func mapStoreErr(err error, onConflict error) error {
	switch {
	case err == nil:
		return nil
	case infra.IsKind(err, infra.KindUnavailable):
		return errs.Mark(err, ErrStoreUnavailable)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, onConflict)
	default:
		return err
	}
}
