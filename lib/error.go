package lib

import (
	"fmt"
)

type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	// Constructs a new Error instance
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code, and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s", p.EModule, p.ECode, p.Msg)
}

const (
	// Main Module
	MainModule ErrorModule = "main"

	// Main Module Error Codes
	CodeJSONMarshal   ErrorCode = 1
	CodeJSONUnmarshal ErrorCode = 2
	CodeStringToBytes ErrorCode = 3
	CodeWriteFile     ErrorCode = 4
	CodeReadFile      ErrorCode = 5
	CodeMarshal       ErrorCode = 6

	// Sortition Module
	SortitionModule ErrorModule = "sortition"

	// Sortition Module Error Codes
	// The first three are the verification rejections: frequent on untrusted network
	// input, they must be handled and never crash the process
	CodeVRFVerifyFailed    ErrorCode = 1
	CodeDifficultyMismatch ErrorCode = 2
	CodeVDFVerifyFailed    ErrorCode = 3
	CodeDecodeSortition    ErrorCode = 4
	// The rest are local configuration or caller defects
	CodeZeroTotalVoteCount ErrorCode = 5
	CodeInvalidVDFParams   ErrorCode = 6
	CodeNilSortition       ErrorCode = 7
)

// MAIN MODULE ERRORS BELOW

func ErrJSONMarshal(err error) ErrorI {
	return NewError(CodeJSONMarshal, MainModule, fmt.Sprintf("json.Marshal() failed with err: %s", err.Error()))
}

func ErrJSONUnmarshal(err error) ErrorI {
	return NewError(CodeJSONUnmarshal, MainModule, fmt.Sprintf("json.Unmarshal() failed with err: %s", err.Error()))
}

func ErrStringToBytes(err error) ErrorI {
	return NewError(CodeStringToBytes, MainModule, fmt.Sprintf("stringToBytes() failed with err: %s", err.Error()))
}

func ErrWriteFile(err error) ErrorI {
	return NewError(CodeWriteFile, MainModule, fmt.Sprintf("os.WriteFile() failed with err: %s", err.Error()))
}

func ErrReadFile(err error) ErrorI {
	return NewError(CodeReadFile, MainModule, fmt.Sprintf("os.ReadFile() failed with err: %s", err.Error()))
}

func ErrMarshal(err error) ErrorI {
	return NewError(CodeMarshal, MainModule, fmt.Sprintf("marshal() failed with err: %s", err.Error()))
}

// SORTITION MODULE ERRORS BELOW

func ErrVRFVerifyFailed(vrfInput []byte) ErrorI {
	return NewError(CodeVRFVerifyFailed, SortitionModule,
		fmt.Sprintf("VRF verify failed. VRF input %X", vrfInput))
}

func ErrDifficultyMismatch(got, expected, threshold, thresholdUpper uint16, vdfInput []byte) ErrorI {
	return NewError(CodeDifficultyMismatch, SortitionModule,
		fmt.Sprintf("incorrect difficulty. VDF input %X, difficulty %d, expected %d, threshold %d, threshold_upper %d",
			vdfInput, got, expected, threshold, thresholdUpper))
}

func ErrVDFVerifyFailed(vdfInput []byte, lambda, difficulty uint16) ErrorI {
	return NewError(CodeVDFVerifyFailed, SortitionModule,
		fmt.Sprintf("VDF solution verification failed. VDF input %X, lambda %d, difficulty %d", vdfInput, lambda, difficulty))
}

func ErrDecodeSortition(err error) ErrorI {
	return NewError(CodeDecodeSortition, SortitionModule, fmt.Sprintf("sortition decode failed with err: %s", err.Error()))
}

func ErrZeroTotalVoteCount() ErrorI {
	return NewError(CodeZeroTotalVoteCount, SortitionModule, "total vote count is zero")
}

func ErrInvalidVDFParams(err error) ErrorI {
	return NewError(CodeInvalidVDFParams, SortitionModule, fmt.Sprintf("invalid vdf params: %s", err.Error()))
}

func ErrNilSortition() ErrorI {
	return NewError(CodeNilSortition, SortitionModule, "sortition is nil")
}
