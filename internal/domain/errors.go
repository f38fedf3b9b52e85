package domain

import "fmt"

// InvalidPriceError indicates a non-positive price was supplied where a
// positive price is required.
type InvalidPriceError struct {
	Field string
	Value float64
}

func (e InvalidPriceError) Error() string {
	return fmt.Sprintf("%s: price must be positive, got %.4f", e.Field, e.Value)
}

// InsufficientDataError indicates an input series is shorter than the
// minimum length an operation requires.
type InsufficientDataError struct {
	Op       string
	Required int
	Actual   int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data, need at least %d points, got %d", e.Op, e.Required, e.Actual)
}

// DataAlignmentError indicates two parallel series that must be the same
// length are not. The core never silently truncates.
type DataAlignmentError struct {
	Op        string
	LeftName  string
	LeftLen   int
	RightName string
	RightLen  int
}

func (e DataAlignmentError) Error() string {
	return fmt.Sprintf("%s: %s has %d points but %s has %d, series must be aligned",
		e.Op, e.LeftName, e.LeftLen, e.RightName, e.RightLen)
}

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientFundsError indicates a paper buy order exceeds available cash
type InsufficientFundsError struct {
	Available float64
	Required  float64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %.2f, required %.2f", e.Available, e.Required)
}

// InsufficientSharesError indicates a paper sell order exceeds the held position
type InsufficientSharesError struct {
	Symbol    string
	Available int
	Requested int
}

func (e InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: available %d, requested %d", e.Symbol, e.Available, e.Requested)
}
