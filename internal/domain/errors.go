package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedJobType is returned when a job row carries a type the worker
// does not know how to process.
var ErrUnsupportedJobType = errors.New("unsupported job type")

// ProviderError captures a non-success HTTP response from a generation
// vendor, preserving the status code and raw body for the persisted job row.
type ProviderError struct {
	Vendor string
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Vendor, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Vendor, e.Status, e.Body)
}

// ValidationError marks a structurally successful but unusable response,
// e.g. a 200 with no image bytes or no addressable URL.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// UploadError wraps a non-transient object-storage write failure.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BucketError reports a bucket bootstrap failure. "Already exists" responses
// are swallowed by the uploader and never surface as a BucketError.
type BucketError struct {
	Bucket string
	Reason string
	Err    error
}

func (e *BucketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bucket %s: %s", e.Bucket, e.Reason)
	}
	return fmt.Sprintf("bucket %s: %s: %v", e.Bucket, e.Reason, e.Err)
}

func (e *BucketError) Unwrap() error { return e.Err }
