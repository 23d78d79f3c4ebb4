package access

import "net/http"

// Reason is the stable code explaining a denial. Grants carry ReasonNone.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonDeleted               Reason = "deleted"
	ReasonInactive              Reason = "inactive"
	ReasonExpired               Reason = "expired"
	ReasonViewLimit             Reason = "view_limit"
	ReasonPasswordRequired      Reason = "password_required"
	ReasonWrongPassword         Reason = "wrong_password"
	ReasonSigninRequired        Reason = "signin_required"
	ReasonConsumerLimitExceeded Reason = "consumer_limit_exceeded"
	ReasonDownloadDisabled      Reason = "download_disabled"
	ReasonUnavailable           Reason = "unavailable"
	ReasonNotFound              Reason = "not_found"
)

// Method is how the file was (or would have been) used.
type Method string

const (
	MethodView              Method = "view"
	MethodDownload          Method = "download"
	MethodValidate          Method = "validate"
	MethodScreenshotAttempt Method = "screenshot_attempt"
)

// IsContent reports whether the method delivers file bytes. Only granted
// content entries open or extend a viewing session.
func (m Method) IsContent() bool {
	return m == MethodView || m == MethodDownload
}

var contentMethods = []Method{MethodView, MethodDownload}

var messages = map[Reason]string{
	ReasonDeleted:               "This file has been deleted",
	ReasonInactive:              "This file is no longer available",
	ReasonExpired:               "This file has expired",
	ReasonViewLimit:             "This file has reached its view limit",
	ReasonPasswordRequired:      "This file is password protected",
	ReasonWrongPassword:         "Incorrect password",
	ReasonSigninRequired:        "You must be signed in to access this file",
	ReasonConsumerLimitExceeded: "You have exceeded your view limit for this file",
	ReasonDownloadDisabled:      "Downloads are disabled for this file",
	ReasonUnavailable:           "File content is temporarily unavailable",
	ReasonNotFound:              "Invalid access token",
}

func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return "Access denied"
}

// StatusFor maps a reason to the HTTP status the delivery layer returns.
func StatusFor(r Reason) int {
	switch r {
	case ReasonNone:
		return http.StatusOK
	case ReasonDeleted, ReasonExpired:
		return http.StatusGone
	case ReasonViewLimit, ReasonInactive, ReasonConsumerLimitExceeded, ReasonDownloadDisabled:
		return http.StatusForbidden
	case ReasonSigninRequired, ReasonPasswordRequired, ReasonWrongPassword:
		return http.StatusUnauthorized
	case ReasonNotFound:
		return http.StatusNotFound
	case ReasonUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden
	}
}
