package extension

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// Publisher pairs a publisher id with its base64-encoded raw Ed25519
// public key.
type Publisher struct {
	ID  string
	Key string
}

// BuiltinPublishers is the compiled-in trusted-publisher list. Adding
// an entry requires a rebuild and redeploy; there is deliberately no
// runtime mutation path.
var BuiltinPublishers = []Publisher{
	{ID: "vswrite-official", Key: "Nqh5oHbH6TO6WrAV1r64m0Z8FWhQru7Ku75tDmMNqkA="},
}

// TrustRegistry resolves publisher ids to their verification keys.
// It is immutable after construction and safe for concurrent reads.
type TrustRegistry struct {
	keys map[string]ed25519.PublicKey
}

// NewTrustRegistry builds a registry from publisher entries. Keys that
// fail to decode or have the wrong length are rejected at construction
// so a bad compiled-in entry fails loudly at startup.
func NewTrustRegistry(publishers []Publisher) (*TrustRegistry, error) {
	keys := make(map[string]ed25519.PublicKey, len(publishers))
	for _, p := range publishers {
		key, err := decodePublicKey(p.Key)
		if err != nil {
			return nil, fmt.Errorf("trusted publisher %q: %w", p.ID, err)
		}
		keys[p.ID] = key
	}
	return &TrustRegistry{keys: keys}, nil
}

// Lookup returns the trusted key for a publisher id.
func (t *TrustRegistry) Lookup(publisherID string) (ed25519.PublicKey, bool) {
	key, ok := t.keys[publisherID]
	return key, ok
}

// PublisherIDs lists the registered publisher ids.
func (t *TrustRegistry) PublisherIDs() []string {
	ids := make([]string, 0, len(t.keys))
	for id := range t.keys {
		ids = append(ids, id)
	}
	return ids
}

func decodePublicKey(b64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length %d (expected %d)", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
