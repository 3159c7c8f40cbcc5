// Package status implements the flat error taxonomy every core API call
// returns. Internal recursion always propagates the first non-OK status
// unmodified so a caller can recover the original Kind with errors.Is.
package status

import "fmt"

// Kind enumerates every error condition the core can surface.
type Kind int

const (
	// OK is never actually returned as an error; it exists so Kind has a
	// documented zero-adjacent success value alongside the failure kinds.
	OK Kind = iota
	InvalidCommandArgument
	UnknownCommand
	InvalidRange
	BranchExists
	BranchNotExists
	KeyExists
	KeyNotExists
	InvalidHash
	ChunkNotExists
	FailedCreateChunk
	TypeMismatch
	IOFault
	StoreInfoUnavailable
)

var names = map[Kind]string{
	OK:                     "OK",
	InvalidCommandArgument: "InvalidCommandArgument",
	UnknownCommand:         "UnknownCommand",
	InvalidRange:           "InvalidRange",
	BranchExists:           "BranchExists",
	BranchNotExists:        "BranchNotExists",
	KeyExists:              "KeyExists",
	KeyNotExists:           "KeyNotExists",
	InvalidHash:            "InvalidHash",
	ChunkNotExists:         "ChunkNotExists",
	FailedCreateChunk:      "FailedCreateChunk",
	TypeMismatch:           "TypeMismatch",
	IOFault:                "IOFault",
	StoreInfoUnavailable:   "StoreInfoUnavailable",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Status is the error type every fallible core call returns.
type Status struct {
	Kind Kind
	Msg  string
}

// New constructs a Status of the given kind with a formatted message.
func New(k Kind, format string, args ...interface{}) *Status {
	return &Status{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func (s *Status) Error() string {
	if s.Msg == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Msg)
}

// Is allows errors.Is(err, status.New(k, "")) to match on Kind alone.
func (s *Status) Is(target error) bool {
	t, ok := target.(*Status)
	if !ok {
		return false
	}
	return s.Kind == t.Kind
}

// Of returns the Kind carried by err, or OK if err is nil, or
// InvalidCommandArgument if err is a foreign error type (conservative
// default — the caller's argument produced an error this package doesn't
// recognize as one of its own kinds).
func Of(err error) Kind {
	if err == nil {
		return OK
	}
	if s, ok := err.(*Status); ok {
		return s.Kind
	}
	return InvalidCommandArgument
}
