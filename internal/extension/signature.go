package extension

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Tier is the outcome of signature verification. It is recomputed on
// every load, never persisted, so a manifest edit is always
// re-verified.
type Tier string

const (
	// TierTrusted means the signature verified against a compiled-in
	// trusted-publisher key.
	TierTrusted Tier = "trusted"
	// TierUntrusted means a key embedded in the manifest verified the
	// signature, but the publisher is not in the trusted list.
	TierUntrusted Tier = "untrusted"
	// TierInvalid means a key was found but the signature does not
	// verify: the manifest was altered after signing, or the signature
	// is bogus. Invalid extensions are never loaded.
	TierInvalid Tier = "invalid"
	// TierUnsigned means no signature fields are present at all.
	TierUnsigned Tier = "unsigned"
)

// Verification is the full result of verifying one manifest.
type Verification struct {
	Tier        Tier
	PublisherID string
	Detail      string
}

// SignatureInvalidError is raised when an Invalid tier must prevent
// loading.
type SignatureInvalidError struct {
	ExtensionID string
	Detail      string
}

func (e *SignatureInvalidError) Error() string {
	return fmt.Sprintf("extension %q signature invalid: %s", e.ExtensionID, e.Detail)
}

// Verifier checks manifest signatures against the trust registry.
// It is stateless apart from the immutable registry, hence safe for
// concurrent use.
type Verifier struct {
	trust *TrustRegistry
}

// NewVerifier creates a verifier over a trust registry.
func NewVerifier(trust *TrustRegistry) *Verifier {
	return &Verifier{trust: trust}
}

// Verify canonicalizes the raw manifest bytes, hashes them with
// SHA-256, and verifies the Ed25519 signature against the trusted
// publisher's key or, failing that, a key embedded in the manifest.
func (v *Verifier) Verify(raw []byte) (Verification, error) {
	var sig struct {
		Signature          string `json:"signature"`
		SignatureAlgorithm string `json:"signatureAlgorithm"`
		PublisherID        string `json:"publisherId"`
		PublicKey          string `json:"publicKey"`
	}
	if err := json.Unmarshal(raw, &sig); err != nil {
		return Verification{}, &MalformedError{Reason: err.Error()}
	}

	if sig.Signature == "" {
		return Verification{Tier: TierUnsigned, Detail: "no signature fields present"}, nil
	}
	if sig.SignatureAlgorithm != "" && sig.SignatureAlgorithm != "ed25519" {
		return Verification{
			Tier:        TierInvalid,
			PublisherID: sig.PublisherID,
			Detail:      fmt.Sprintf("unsupported signature algorithm %q", sig.SignatureAlgorithm),
		}, nil
	}

	key, trusted, detail := v.resolveKey(sig.PublisherID, sig.PublicKey)
	if key == nil {
		return Verification{Tier: TierInvalid, PublisherID: sig.PublisherID, Detail: detail}, nil
	}

	sigBytes, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return Verification{
			Tier:        TierInvalid,
			PublisherID: sig.PublisherID,
			Detail:      "signature is not valid base64",
		}, nil
	}

	canonical, err := Canonicalize(raw)
	if err != nil {
		return Verification{}, err
	}
	digest := sha256.Sum256(canonical)

	if !ed25519.Verify(key, digest[:], sigBytes) {
		return Verification{
			Tier:        TierInvalid,
			PublisherID: sig.PublisherID,
			Detail:      "signature does not verify; manifest altered after signing or wrong key",
		}, nil
	}

	if trusted {
		return Verification{
			Tier:        TierTrusted,
			PublisherID: sig.PublisherID,
			Detail:      fmt.Sprintf("signed by trusted publisher %q", sig.PublisherID),
		}, nil
	}
	return Verification{
		Tier:        TierUntrusted,
		PublisherID: sig.PublisherID,
		Detail:      fmt.Sprintf("valid signature from untrusted publisher %q", sig.PublisherID),
	}, nil
}

// resolveKey prefers the compiled-in trusted key for the publisher id
// and falls back to a self-embedded key for self-signed extensions.
func (v *Verifier) resolveKey(publisherID, embedded string) (key ed25519.PublicKey, trusted bool, detail string) {
	if publisherID != "" {
		if k, ok := v.trust.Lookup(publisherID); ok {
			return k, true, ""
		}
	}
	if embedded != "" {
		k, err := decodePublicKey(embedded)
		if err != nil {
			return nil, false, err.Error()
		}
		return k, false, ""
	}
	return nil, false, "public key not found for publisher"
}

// Sign produces the base64 signature value for a manifest. It runs
// the same Canonicalize algorithm as Verify; the two must never
// diverge. Used by the signing command and by tests.
func Sign(raw []byte, priv ed25519.PrivateKey) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(canonical)
	sig := ed25519.Sign(priv, digest[:])
	return base64.StdEncoding.EncodeToString(sig), nil
}
