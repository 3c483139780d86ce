package models

import "errors"

// ErrNotFound is returned by stores when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a ledger row with the same exchange trade id
// is already recorded for the user.
var ErrDuplicate = errors.New("duplicate")
