package session

import "errors"

var (
	// ErrNoSelection is returned by commands that act on the selected person
	// when nobody is selected.
	ErrNoSelection = errors.New("session: no person selected")

	// ErrUnknownPerson is returned when an id does not resolve.
	ErrUnknownPerson = errors.New("session: unknown person")

	// ErrHasBothParents refuses AddParents for a person whose mother and
	// father are already recorded.
	ErrHasBothParents = errors.New("session: person already has both parents")

	// ErrNoParents refuses AddSibling for a person with no recorded parent.
	ErrNoParents = errors.New("session: person has no parents to share")

	// ErrSelfRelation is returned when a relationship would link a person to
	// themselves.
	ErrSelfRelation = errors.New("session: cannot relate a person to themselves")

	// ErrInvalidMode is returned for an unknown relationship mode.
	ErrInvalidMode = errors.New("session: invalid relationship mode")
)
