package webdeploy

import (
	"fmt"
)

type Kind int

const (
	// KindConfiguration is a missing or invalid setting, or a rule the engine does not provide
	KindConfiguration Kind = iota + 1
	// KindStaging is a failure to put the offline page in place. The site content has not been touched.
	KindStaging
	// KindSync is a failure of the main synchronize call
	KindSync
	// KindUnstaging is a failure to remove the offline page after the main sync ran
	KindUnstaging
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindStaging:
		return "staging error"
	case KindSync:
		return "sync error"
	case KindUnstaging:
		return "unstaging error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrStaging       = &Error{Kind: KindStaging}
	ErrSync          = &Error{Kind: KindSync}
	ErrUnstaging     = &Error{Kind: KindUnstaging}
)

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSync) and friends match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

func configErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
