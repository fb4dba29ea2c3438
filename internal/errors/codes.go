// Package errors provides structured error handling for patclust.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (input files, output files, run history)
//   - 4XX: Validation errors (patterns, thresholds, input lines)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and storage I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeReadFailed     = "ERR_203_READ_FAILED"
	ErrCodeWriteFailed    = "ERR_204_WRITE_FAILED"
	ErrCodeStoreCorrupt   = "ERR_205_STORE_CORRUPT"
	ErrCodeStoreLocked    = "ERR_206_STORE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPattern   = "ERR_402_INVALID_PATTERN"
	ErrCodeInvalidThreshold = "ERR_403_INVALID_THRESHOLD"
	ErrCodeEmptyInput       = "ERR_404_EMPTY_INPUT"
	ErrCodeUnknownPattern   = "ERR_405_UNKNOWN_PATTERN"
	ErrCodeRunNotFound      = "ERR_406_RUN_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal          = "ERR_501_INTERNAL"
	ErrCodeAutomatonTooLarge = "ERR_502_AUTOMATON_TOO_LARGE"
	ErrCodeClusteringFailed  = "ERR_503_CLUSTERING_FAILED"
	ErrCodeCancelled         = "ERR_504_CANCELLED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreCorrupt:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreLocked
}
