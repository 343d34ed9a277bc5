package runtime

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Error codes that indicate broken or expired credentials rather than a
// transient service problem. Retrying these forever would spin the poll loop
// without any chance of recovery.
var credentialErrorCodes = map[string]struct{}{
	"UnrecognizedClientException": {},
	"InvalidClientTokenId":        {},
	"InvalidAccessKeyId":          {},
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"SignatureDoesNotMatch":       {},
	"IncompleteSignature":         {},
	"MissingAuthenticationToken":  {},
}

func isCredentialError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := credentialErrorCodes[apiErr.ErrorCode()]
	return ok
}
