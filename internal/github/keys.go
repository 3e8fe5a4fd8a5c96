package github

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appErr "github.com/quackscience/copilot-extension-duckdb/internal/pkg/errors"
)

// KeyCache fetches and caches the Copilot payload-signing public keys.
// Keys rotate rarely; the expirable LRU keeps lookups off the hot path.
type KeyCache struct {
	apiBase string
	client  *http.Client
	cache   *expirable.LRU[string, *ecdsa.PublicKey]
}

func NewKeyCache(apiBase string, client *http.Client, ttl time.Duration) *KeyCache {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &KeyCache{
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  client,
		cache:   expirable.NewLRU[string, *ecdsa.PublicKey](16, nil, ttl),
	}
}

// Get returns the public key for a key identifier, fetching the key set
// when the identifier is not cached.
func (k *KeyCache) Get(ctx context.Context, keyID string) (*ecdsa.PublicKey, error) {
	if keyID == "" {
		return nil, appErr.ErrUnauthorized
	}
	if key, ok := k.cache.Get(keyID); ok {
		return key, nil
	}
	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	key, ok := k.cache.Get(keyID)
	if !ok {
		return nil, appErr.ErrUnauthorized
	}
	return key, nil
}

func (k *KeyCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.apiBase+"/meta/public_keys/copilot_api", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := k.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fetch signing keys: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		PublicKeys []struct {
			KeyIdentifier string `json:"key_identifier"`
			Key           string `json:"key"`
			IsCurrent     bool   `json:"is_current"`
		} `json:"public_keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for _, entry := range out.PublicKeys {
		key, err := parsePublicKey(entry.Key)
		if err != nil {
			return fmt.Errorf("parse signing key %s: %w", entry.KeyIdentifier, err)
		}
		k.cache.Add(entry.KeyIdentifier, key)
	}
	return nil
}

func parsePublicKey(pemText string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA public key")
	}
	return key, nil
}
