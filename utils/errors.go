package utils

import "strings"

type joinedError struct {
	errs []error
}

// Join returns an error wrapping all non-nil errors in errs, or nil if
// there are none.
func Join(errs ...error) error {
	nonNil := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &joinedError{errs: nonNil}
	}
}

func (e *joinedError) Error() string {
	messages := Map(e.errs, func(err error) string { return err.Error() })
	return strings.Join(messages, "; ")
}
