package friendship

import "fmt"

// Code is a stable machine-readable identifier for a business outcome.
// Transport layers key off the code, never the message text.
type Code string

const (
	CodeSelfRequest         Code = "SELF_REQUEST"
	CodePartyNotFound       Code = "PARTY_NOT_FOUND"
	CodeRelationshipBlocked Code = "RELATIONSHIP_BLOCKED"
	CodeAlreadyPending      Code = "ALREADY_PENDING"
	CodeAlreadyFriends      Code = "ALREADY_FRIENDS"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInvalidStatus       Code = "INVALID_STATUS"
	CodeStorageUnavailable  Code = "STORAGE_UNAVAILABLE"
)

// Error is a typed, expected business outcome. Every Error except
// StorageUnavailable is deterministic and caller-actionable; none of
// them are retried internally.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is a friendship *Error carrying code.
func IsCode(err error, code Code) bool {
	fe, ok := err.(*Error)
	return ok && fe.Code == code
}

func errSelfRequest() *Error {
	return &Error{CodeSelfRequest, "cannot send a friend request to yourself"}
}

func errPartyNotFound(side string) *Error {
	return &Error{CodePartyNotFound, side + " not found or inactive"}
}

func errBlocked() *Error {
	return &Error{CodeRelationshipBlocked, "cannot proceed due to a blocked relationship"}
}

func errAlreadyPending() *Error {
	return &Error{CodeAlreadyPending, "friend request already pending"}
}

func errAlreadyFriends() *Error {
	return &Error{CodeAlreadyFriends, "already friends"}
}

func errNotFound(what string) *Error {
	return &Error{CodeNotFound, what + " not found"}
}

func errUnauthorized(action string) *Error {
	return &Error{CodeUnauthorized, "you are not authorized to " + action + " this request"}
}

func errInvalidStatus(action string, status string) *Error {
	return &Error{CodeInvalidStatus, fmt.Sprintf("cannot %s request with status: %s", action, status)}
}

func errStorage(err error) *Error {
	return &Error{CodeStorageUnavailable, "storage unavailable: " + err.Error()}
}
