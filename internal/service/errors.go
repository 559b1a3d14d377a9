package service

import "errors"

// ErrInvalidReference is returned when an identifier is not a well-formed
// UUID.
var ErrInvalidReference = errors.New("invalid identifier")

// ErrForbidden is returned when the caller is not the owner of the
// resource it is trying to change.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned on bad username/password or on a
// refresh token that is expired, malformed, or revoked.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrActiveReservations is returned when deleting an event that still has
// active reservations.
var ErrActiveReservations = errors.New("event has active reservations")
