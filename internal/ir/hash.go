package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainChain = "querychain/chain/v" + FormatVersion
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentObject converts a document into the canonical wire shape as an
// IRObject: {"class": ..., "chain_methods": [{name: [args...]}, ...]}.
func DocumentObject(doc Document) IRObject {
	steps := make(IRArray, len(doc.Chain))
	for i, s := range doc.Chain {
		args := s.Args
		if args == nil {
			args = IRArray{}
		}
		steps[i] = IRObject{s.Name: args}
	}
	return IRObject{
		"class":         IRString(doc.Class),
		"chain_methods": steps,
	}
}

// ChainHash computes the content-addressed identity of a document.
// Equal (class, chain) pairs always produce the same hash, whichever
// format they were decoded from.
func ChainHash(doc Document) (string, error) {
	canonical, err := MarshalCanonical(DocumentObject(doc))
	if err != nil {
		return "", fmt.Errorf("ChainHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChain, canonical), nil
}

// MustChainHash is like ChainHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustChainHash(doc Document) string {
	h, err := ChainHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
