package s3client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// ErrBucketNotFound is returned by New when the configured bucket is missing
var ErrBucketNotFound = errors.New("bucket not found")

// errorResponse returns the S3 error response wrapped in err, if any
func errorResponse(err error) (minio.ErrorResponse, bool) {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" {
		return resp, true
	}
	return resp, false
}

// IsNotFoundError reports a missing bucket or object
func IsNotFoundError(err error) bool {
	if errors.Is(err, ErrBucketNotFound) {
		return true
	}
	resp, ok := errorResponse(err)
	if !ok {
		return false
	}
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// IsAuthError reports credentials or permissions the endpoint rejected
func IsAuthError(err error) bool {
	resp, ok := errorResponse(err)
	if !ok {
		return false
	}
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AuthorizationHeaderMalformed":
		return true
	}
	return false
}

// IsTransient reports failures that may pass on a later attempt: throttling,
// server side errors, and network errors that never reached S3
func IsTransient(err error) bool {
	if resp, ok := errorResponse(err); ok {
		switch resp.Code {
		case "RequestTimeout", "RequestTimeTooSkewed", "SlowDown", "InternalError", "ServiceUnavailable":
			return true
		}
		return resp.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// FormatError renders err with its S3 error code when it carries one
func FormatError(err error) string {
	if resp, ok := errorResponse(err); ok {
		return fmt.Sprintf("%s (S3 %s, HTTP %d)", resp.Message, resp.Code, resp.StatusCode)
	}
	return err.Error()
}
