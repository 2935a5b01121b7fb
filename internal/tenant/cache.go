package tenant

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nuoa-io/nuoactl/internal/secrets"
	"github.com/nuoa-io/nuoactl/internal/storage/dirstore"
)

// expirySlack is subtracted from token expiry so a token about to lapse is
// never handed out.
const expirySlack = 30 * time.Second

// cacheEntity is the single dirstore entity holding the cached token.
const cacheEntity = "tenant"

// TokenCache persists the tenant token with the access token encrypted at rest.
type TokenCache struct {
	ds      *dirstore.DirStore
	keyPath string
}

// NewTokenCache creates a cache rooted at baseDir using the age key at keyPath.
func NewTokenCache(baseDir, keyPath string) *TokenCache {
	return &TokenCache{
		ds:      dirstore.New(baseDir, "token"),
		keyPath: keyPath,
	}
}

type cachedToken struct {
	AccessToken string    `json:"access_token"` // ENC[age:...] blob
	ExpiresAt   time.Time `json:"expires_at"`
}

// Save encrypts and stores a token, generating the age key on first use.
func (tc *TokenCache) Save(token *Token) error {
	if err := secrets.GenerateIdentity(tc.keyPath); err != nil {
		return err
	}
	identity, err := secrets.LoadIdentity(tc.keyPath)
	if err != nil {
		return err
	}

	blob, err := secrets.Encrypt(token.AccessToken, identity.Recipient())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cachedToken{
		AccessToken: blob,
		ExpiresAt:   token.ExpiresAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	tc.ds.Lock()
	defer tc.ds.Unlock()

	if err := tc.ds.EnsureDir(cacheEntity); err != nil {
		return err
	}
	return tc.ds.WriteFileAtomic(cacheEntity, "token.json", data)
}

// Load returns a cached, unexpired token, or nil when none is usable.
func (tc *TokenCache) Load() (*Token, error) {
	tc.ds.RLock()
	data, err := tc.ds.ReadFileContent(cacheEntity, "token.json")
	tc.ds.RUnlock()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cached token: %w", err)
	}

	if time.Now().After(cached.ExpiresAt.Add(-expirySlack)) {
		return nil, nil
	}

	identity, err := secrets.LoadIdentity(tc.keyPath)
	if err != nil {
		return nil, err
	}
	plain, err := secrets.Decrypt(cached.AccessToken, identity)
	if err != nil {
		return nil, err
	}

	return &Token{AccessToken: plain, ExpiresAt: cached.ExpiresAt}, nil
}
