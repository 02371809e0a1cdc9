// Package policy manages the persisted synthesis tier policy.
package policy

import (
	"context"
	"log/slog"

	"beyondwords/pkg/config"
	"beyondwords/pkg/statefile"
)

// Tier identifies a synthesis backend.
type Tier string

// Known tiers.
const (
	TierLocal   Tier = "local"
	TierCloud   Tier = "cloud"
	TierPremium Tier = "premium"
)

// adminCredentialVars is the prioritized env var list for the admin secret.
var adminCredentialVars = []string{"BEYONDWORDS_ADMIN_PASSWORD", "ADMIN_PASSWORD"}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierLocal, TierCloud, TierPremium:
		return Tier(s), true
	}
	return "", false
}

// TierPolicy is a read-only snapshot of the active policy.
type TierPolicy struct {
	ActiveTier              Tier `json:"active_tier"`
	ExternalServicesEnabled bool `json:"external_services_enabled"`
}

// Store reads and mutates the persisted tier policy.
type Store struct {
	file *statefile.File
}

// NewStore creates a Store on top of the shared state document.
func NewStore(file *statefile.File) *Store {
	return &Store{file: file}
}

// Policy returns a snapshot of the current policy.
func (s *Store) Policy(ctx context.Context) TierPolicy {
	var p TierPolicy
	s.file.View(func(doc statefile.Document) {
		tier, ok := ParseTier(doc.ActiveTier)
		if !ok {
			tier = TierLocal
		}
		p = TierPolicy{
			ActiveTier:              tier,
			ExternalServicesEnabled: doc.ExternalServicesEnabled,
		}
	})
	return p
}

// SetActiveTier switches the active tier. Unrecognized values are rejected
// and the previous tier is preserved. The returned error reports a
// persistence failure only.
func (s *Store) SetActiveTier(ctx context.Context, tier string) (bool, error) {
	t, ok := ParseTier(tier)
	if !ok {
		slog.Warn("Policy: rejected unknown tier", "tier", tier)
		return false, nil
	}

	err := s.file.Update(func(doc *statefile.Document) error {
		doc.ActiveTier = string(t)
		return nil
	})
	if err != nil {
		return false, err
	}
	slog.Info("Policy: active tier changed", "tier", t)
	return true, nil
}

// SetServicesEnabled toggles the global external-services flag. Fails closed
// when the credential does not match the admin secret.
func (s *Store) SetServicesEnabled(ctx context.Context, enabled bool, credential string) (bool, error) {
	if !s.VerifyCredential(credential) {
		slog.Warn("Policy: rejected services toggle, bad credential")
		return false, nil
	}

	err := s.file.Update(func(doc *statefile.Document) error {
		doc.ExternalServicesEnabled = enabled
		return nil
	})
	if err != nil {
		return false, err
	}
	slog.Info("Policy: external services toggled", "enabled", enabled)
	return true, nil
}

// VerifyCredential checks an admin credential against the configured secret.
// An unset secret rejects everything (fail closed).
func (s *Store) VerifyCredential(credential string) bool {
	secret := config.FirstEnv(adminCredentialVars...)
	if secret == "" {
		return false
	}
	return credential == secret
}
