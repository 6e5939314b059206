package submitter

import "errors"

var (
	// ErrNotConfigured is returned by Preprocess and RunBatch before Configure.
	ErrNotConfigured = errors.New("submitter not configured")
	// ErrAlreadyConfigured is returned by a second Configure call.
	ErrAlreadyConfigured = errors.New("submitter already configured")
	// ErrUnknownProfile is returned for a model profile that is not registered.
	ErrUnknownProfile = errors.New("unknown model profile")
)
