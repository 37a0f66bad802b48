package lookup

import "fmt"

// InputError reports a ticker that failed validation before any fetch.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid ticker %q: %s", e.Input, e.Reason)
}

// LookupError reports that the primary provider could not supply a quote.
// Its message is deliberately generic; the cause is kept for logs.
type LookupError struct {
	Ticker string
	Err    error
}

func (e *LookupError) Error() string {
	return "could not fetch data for " + e.Ticker
}

func (e *LookupError) Unwrap() error { return e.Err }
