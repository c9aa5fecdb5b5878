package domain

import "errors"

// Kind classifies domain errors so transports can map them to stable codes.
type Kind string

const (
	KindSelfReference       Kind = "self_reference"
	KindNotFound            Kind = "not_found"
	KindAlreadyExists       Kind = "already_exists"
	KindBlocked             Kind = "blocked"
	KindConstraintViolation Kind = "constraint_violation"
	KindPrivate             Kind = "private"
	KindInvalidArgument     Kind = "invalid_argument"
)

// Error is an expected domain failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches the same concrete error or the sentinel of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Kind sentinels. errors.Is(err, ErrKindNotFound) matches every not-found error.
var (
	ErrKindSelfReference       = &Error{Kind: KindSelfReference}
	ErrKindNotFound            = &Error{Kind: KindNotFound}
	ErrKindAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrKindBlocked             = &Error{Kind: KindBlocked}
	ErrKindConstraintViolation = &Error{Kind: KindConstraintViolation}
	ErrKindPrivate             = &Error{Kind: KindPrivate}
	ErrKindInvalidArgument     = &Error{Kind: KindInvalidArgument}
)

var (
	ErrCannotFollowSelf    = newError(KindSelfReference, "CANNOT_FOLLOW_SELF", "cannot follow yourself")
	ErrCannotFriendSelf    = newError(KindSelfReference, "CANNOT_FRIEND_SELF", "cannot friend yourself")
	ErrCannotBlockSelf     = newError(KindSelfReference, "CANNOT_BLOCK_SELF", "cannot block yourself")
	ErrAlreadyFollowing    = newError(KindAlreadyExists, "ALREADY_FOLLOWING", "already following")
	ErrRequestAlreadySent  = newError(KindAlreadyExists, "REQUEST_ALREADY_SENT", "request already sent")
	ErrAlreadyFriends      = newError(KindAlreadyExists, "ALREADY_FRIENDS", "already friends")
	ErrAlreadyBlocked      = newError(KindAlreadyExists, "ALREADY_BLOCKED", "already blocked")
	ErrNotFollowing        = newError(KindNotFound, "NOT_FOLLOWING", "not following")
	ErrFollowerNotFound    = newError(KindNotFound, "FOLLOWER_NOT_FOUND", "user is not a follower")
	ErrRequestNotFound     = newError(KindNotFound, "REQUEST_NOT_FOUND", "request not found")
	ErrProfileNotFound     = newError(KindNotFound, "PROFILE_NOT_FOUND", "profile not found")
	ErrFriendshipNotFound  = newError(KindNotFound, "FRIENDSHIP_NOT_FOUND", "friendship not found")
	ErrBlockNotFound       = newError(KindNotFound, "BLOCK_NOT_FOUND", "block not found")
	ErrNotFound            = newError(KindNotFound, "NOT_FOUND", "record not found")
	ErrBlocked             = newError(KindBlocked, "BLOCKED", "user is blocked")
	ErrConstraintViolation = newError(KindConstraintViolation, "CONSTRAINT_VIOLATION", "storage constraint violated")
	ErrPrivateProfile      = newError(KindPrivate, "PRIVATE_PROFILE", "profile is private")
	ErrInvalidCursor       = newError(KindInvalidArgument, "INVALID_CURSOR", "invalid cursor")
	ErrInvalidDirection    = newError(KindInvalidArgument, "INVALID_DIRECTION", "direction must be incoming or outgoing")
	ErrInvalidUserID       = newError(KindInvalidArgument, "INVALID_USER_ID", "invalid user id")
)

// KindOf returns the kind of a domain error, or "" for unexpected errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// CodeOf returns the stable code of a domain error, or "" for unexpected errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
