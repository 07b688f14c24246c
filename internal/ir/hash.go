package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix enables future
// algorithm migration.
const (
	DomainDeclaration = "taxi/declaration/v1"
	DomainDocument    = "taxi/document/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DeclarationFingerprint hashes an arbitrary declaration value (typically a
// parse-tree node) so that two declarations can be compared for identity.
//
// The value is round-tripped through encoding/json, keys named in ignore
// (for example source positions) are dropped at every depth, and the result
// is canonicalized before hashing. Two declarations that differ only in the
// ignored keys get the same fingerprint.
func DeclarationFingerprint(v any, ignore ...string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("DeclarationFingerprint: failed to encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("DeclarationFingerprint: failed to decode: %w", err)
	}

	skip := make(map[string]bool, len(ignore))
	for _, k := range ignore {
		skip[k] = true
	}
	cleaned, ok := stripKeys(generic, skip)
	if !ok {
		cleaned = "null"
	}

	canonical, err := MarshalCanonical(cleaned)
	if err != nil {
		return "", fmt.Errorf("DeclarationFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeclaration, canonical), nil
}

// DocumentFingerprint hashes the canonical description of a compiled
// document (see Describe).
func DocumentFingerprint(doc *Document) (string, error) {
	canonical, err := MarshalCanonical(Describe(doc))
	if err != nil {
		return "", fmt.Errorf("DocumentFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// stripKeys removes ignored keys and nulls, and turns json.Number into
// canonical-safe values. It reports false for values that should be dropped.
func stripKeys(v any, skip map[string]bool) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, true
		}
		return val.String(), true
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			if skip[k] {
				continue
			}
			if cleaned, ok := stripKeys(e, skip); ok {
				out[k] = cleaned
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			if cleaned, ok := stripKeys(e, skip); ok {
				out = append(out, cleaned)
			}
		}
		return out, true
	default:
		return val, true
	}
}
