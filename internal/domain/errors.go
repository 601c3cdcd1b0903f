package domain

import "errors"

// Domain errors.
var (
	// ErrNoProvider is returned when a URL matches no registered provider.
	ErrNoProvider = errors.New("no provider recognizes this URL")

	// ErrNoQualities is returned when a video exposes no qualities at all,
	// so no transfer quality can be resolved.
	ErrNoQualities = errors.New("no qualities available")

	// ErrZeroByteOutput is returned when a transfer produced an empty file.
	// The artifact is deleted and never registered.
	ErrZeroByteOutput = errors.New("transfer produced a zero-byte file")

	// ErrNoOutputFile is returned when a provider transfer call left nothing
	// usable behind in the transfer directory.
	ErrNoOutputFile = errors.New("no output file produced")

	// ErrPlaylistUnsupported is returned for playlist URLs outside the one
	// provider whose playlists are accepted.
	ErrPlaylistUnsupported = errors.New("playlist URL not supported by this provider")

	// ErrUnsupportedListing is returned when an adapter lacks the requested
	// listing capability.
	ErrUnsupportedListing = errors.New("listing not supported by this provider")

	// ErrEmptyURL is returned when a request carries no URL.
	ErrEmptyURL = errors.New("url must not be empty")

	// ErrJobNotFound is returned when a job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobs is returned when there are no jobs to process.
	ErrNoJobs = errors.New("no jobs available")

	// ErrSourceNotFound is returned when a tracked source cannot be found.
	ErrSourceNotFound = errors.New("tracked source not found")

	// ErrDuplicateSource is returned when a tracked source with the same
	// query already exists.
	ErrDuplicateSource = errors.New("source already tracked")

	// ErrDownloadFailed is returned when a byte transfer fails.
	ErrDownloadFailed = errors.New("download failed")

	// ErrURLExpired is returned when a media URL has expired.
	ErrURLExpired = errors.New("media URL has expired")

	// ErrRateLimited is returned when rate limited by a provider.
	ErrRateLimited = errors.New("rate limited")

	// ErrStorageFull is returned when there is insufficient storage space.
	ErrStorageFull = errors.New("insufficient storage space")

	// ErrRegistrationFailed is returned when the completion endpoint could
	// not be reached. Logged only, never fails a transfer.
	ErrRegistrationFailed = errors.New("completion registration failed")
)

// ProviderError wraps an error with the provider adapter responsible for it.
type ProviderError struct {
	Provider ProviderKind
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return e.Op + " [" + e.Provider.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider ProviderKind, op string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// TransferError wraps an error with transfer context.
type TransferError struct {
	TransferID TransferID
	Op         string
	Err        error
}

func (e *TransferError) Error() string {
	if e.TransferID != "" {
		return e.Op + " [" + e.TransferID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewTransferError creates a new TransferError.
func NewTransferError(id TransferID, op string, err error) *TransferError {
	return &TransferError{
		TransferID: id,
		Op:         op,
		Err:        err,
	}
}
