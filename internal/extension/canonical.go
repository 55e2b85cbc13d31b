package extension

import (
	"bytes"
	"encoding/json"
)

// signatureFields are stripped from the manifest before hashing. The
// embedded publicKey travels with the signature block, so it is
// excluded from the signed content as well.
var signatureFields = []string{"signature", "signatureAlgorithm", "publisherId", "publicKey"}

// Canonicalize produces the exact byte sequence that is hashed and
// signed: the manifest document with the signature fields removed,
// re-serialized compactly with every object's keys sorted at every
// nesting level.
//
// Sign time and verify time MUST run this identical algorithm; any
// drift invalidates every existing signature in the wild. Numbers are
// decoded as json.Number so their textual form survives the round
// trip.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}

	for _, field := range signatureFields {
		delete(doc, field)
	}

	// encoding/json sorts map keys at every level, which is the whole
	// canonicalization contract.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
