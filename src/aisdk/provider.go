package aisdk

import (
	"context"
)

// CredentialSource looks up credentials for a provider. A nil result means the
// provider has not been configured.
type CredentialSource interface {
	GetCredentials(providerID string) *Credentials
}

// ImageLoader resolves a persisted image path to a data URI.
type ImageLoader interface {
	LoadImageAsDataURI(ctx context.Context, path string) (string, error)
}
