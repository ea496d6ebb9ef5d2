package core

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal condition of a snapshot run.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindBlockNotFound
	KindHeaderNotFound
	KindMalformedAccountKey
	KindMalformedBalanceRecord
	KindUnexpectedReservedBalance
	KindIssuanceMismatch
	KindGrantListDecodeFailure
	KindArchive
)

var kindNames = map[Kind]string{
	KindUnknown:                   "Unknown",
	KindConfig:                    "ConfigError",
	KindBlockNotFound:             "BlockNotFound",
	KindHeaderNotFound:            "HeaderNotFound",
	KindMalformedAccountKey:       "MalformedAccountKey",
	KindMalformedBalanceRecord:    "MalformedBalanceRecord",
	KindUnexpectedReservedBalance: "UnexpectedReservedBalance",
	KindIssuanceMismatch:          "IssuanceMismatch",
	KindGrantListDecodeFailure:    "GrantListDecodeFailure",
	KindArchive:                   "ArchiveError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is checks against a Kind.
var (
	ErrConfig                    = &Error{Kind: KindConfig}
	ErrBlockNotFound             = &Error{Kind: KindBlockNotFound}
	ErrHeaderNotFound            = &Error{Kind: KindHeaderNotFound}
	ErrMalformedAccountKey       = &Error{Kind: KindMalformedAccountKey}
	ErrMalformedBalanceRecord    = &Error{Kind: KindMalformedBalanceRecord}
	ErrUnexpectedReservedBalance = &Error{Kind: KindUnexpectedReservedBalance}
	ErrIssuanceMismatch          = &Error{Kind: KindIssuanceMismatch}
	ErrGrantListDecodeFailure    = &Error{Kind: KindGrantListDecodeFailure}
	ErrArchive                   = &Error{Kind: KindArchive}
)

// Error is a fatal, non-retryable failure. Every Error aborts the run.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf creates a new Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrInvalidConfig creates a new configuration error
func ErrInvalidConfig(msg string) error {
	return &Error{Kind: KindConfig, Msg: msg}
}

// ErrInvalidConfigf creates a new formatted configuration error
func ErrInvalidConfigf(format string, args ...interface{}) error {
	return Errorf(KindConfig, format, args...)
}
