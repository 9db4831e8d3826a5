package store

import (
	"fmt"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
)

// marshalDocument converts a document to canonical JSON TEXT for storage
// and computes its chain hash.
func marshalDocument(doc ir.Document) (payload, hash string, err error) {
	data, err := codec.Encode(doc, codec.FormatJSON)
	if err != nil {
		return "", "", fmt.Errorf("marshal document: %w", err)
	}
	hash, err = ir.ChainHash(doc)
	if err != nil {
		return "", "", fmt.Errorf("hash document: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalDocument parses a stored payload. Payloads are written by
// marshalDocument, so a failure here means the row was edited by hand.
func unmarshalDocument(payload string) (ir.Document, error) {
	doc, err := codec.Decode([]byte(payload), codec.FormatJSON)
	if err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
