package config

import (
	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

// CredentialStore serves provider credentials from the configuration.
type CredentialStore struct {
	manager *Manager
}

var _ aisdk.CredentialSource = (*CredentialStore)(nil)

// GetCredentials returns the credentials for providerID, or nil when the
// provider is not configured.
func (s *CredentialStore) GetCredentials(providerID string) *aisdk.Credentials {
	s.manager.mu.RLock()
	defer s.manager.mu.RUnlock()

	pc, ok := s.manager.config.Providers[providerID]
	if !ok {
		return nil
	}
	return &aisdk.Credentials{
		APIKey:   pc.APIKey,
		BaseURL:  pc.BaseURL,
		APIPath:  pc.APIPath,
		Verified: pc.Verified,
	}
}

// SetVerified marks a provider's key as checked or not.
func (s *CredentialStore) SetVerified(providerID string, verified bool) {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()

	pc, ok := s.manager.config.Providers[providerID]
	if !ok {
		return
	}
	pc.Verified = verified
	s.manager.config.Providers[providerID] = pc
}

func validateProviderID(id string) bool {
	return registry.IsKnownProvider(id)
}
