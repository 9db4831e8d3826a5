package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderDoc() Document {
	return Document{
		Class: "Order",
		Chain: Chain{
			NewStep("where", IRString("status"), IRString("paid")),
			NewStep("limit", IRInt(10)),
		},
	}
}

func TestDocumentObjectShape(t *testing.T) {
	data, err := MarshalCanonical(DocumentObject(orderDoc()))
	require.NoError(t, err)
	assert.Equal(t,
		`{"chain_methods":[{"where":["status","paid"]},{"limit":[10]}],"class":"Order"}`,
		string(data))
}

func TestChainHashDeterminism(t *testing.T) {
	h1, err := ChainHash(orderDoc())
	require.NoError(t, err)
	h2, err := ChainHash(orderDoc())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestChainHashSensitiveToOrder(t *testing.T) {
	doc := orderDoc()
	swapped := Document{Class: doc.Class, Chain: Chain{doc.Chain[1], doc.Chain[0]}}
	assert.NotEqual(t, MustChainHash(doc), MustChainHash(swapped))
}

func TestChainHashSensitiveToClass(t *testing.T) {
	doc := orderDoc()
	other := Document{Class: "Invoice", Chain: doc.Chain}
	assert.NotEqual(t, MustChainHash(doc), MustChainHash(other))
}

func TestChainHashNilArgsEqualEmpty(t *testing.T) {
	a := Document{Class: "Order", Chain: Chain{{Name: "all"}}}
	b := Document{Class: "Order", Chain: Chain{{Name: "all", Args: IRArray{}}}}
	assert.Equal(t, MustChainHash(a), MustChainHash(b))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + 0x00 + "c" must differ from "a" + 0x00 + "bc"
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestHashHexEncoding(t *testing.T) {
	h := MustChainHash(orderDoc())
	assert.Len(t, h, 64)
	_, err := hex.DecodeString(h)
	assert.NoError(t, err)
}
