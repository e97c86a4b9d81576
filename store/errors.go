package store

import "fmt"

// TooLargeError is returned by Put when the encoded value exceeds
// Options.MaxEncodedSize.
type TooLargeError struct {
	Key  string
	Size int
	Max  int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("store: value for %q is %d bytes, limit %d", e.Key, e.Size, e.Max)
}
