package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/elee1766/lenschat/src/app"
	"github.com/elee1766/lenschat/src/config"
	"github.com/elee1766/lenschat/src/manager"
	"github.com/elee1766/lenschat/src/providers"
	"github.com/elee1766/lenschat/src/storage"
	"github.com/elee1766/lenschat/src/vault"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitNotFound    = 5 // Missing conversation, model or image
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
	ExitRateLimit   = 9 // Provider rate limit
)

// reportError prints err and returns its exit code.
func reportError(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCode(err)
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		apiErr   *providers.APIError
		cfgErr   config.ValidationError
		validErr *providers.ValidationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &apiErr):
		switch {
		case apiErr.IsRateLimit():
			return ExitRateLimit
		case apiErr.IsAuthError():
			return ExitAuth
		case apiErr.StatusCode >= 500:
			return ExitNetwork
		}
		return ExitError
	case errors.Is(err, manager.ErrCredentials):
		return ExitAuth
	case errors.As(err, &cfgErr),
		errors.Is(err, manager.ErrNoModel),
		errors.Is(err, providers.ErrUnknownProvider),
		errors.Is(err, providers.ErrMissingBaseURL),
		errors.Is(err, app.ErrPersistenceDisabled):
		return ExitConfig
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, config.ErrModelNotFound),
		errors.Is(err, vault.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, manager.ErrEmptyMessage),
		errors.Is(err, manager.ErrVisionUnsupported),
		errors.Is(err, manager.ErrUnknownMode),
		errors.Is(err, vault.ErrNotImage),
		errors.Is(err, vault.ErrTooLarge),
		errors.As(err, &validErr):
		return ExitUsage
	}
	return ExitError
}
