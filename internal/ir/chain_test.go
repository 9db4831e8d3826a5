package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainAppendDoesNotMutate(t *testing.T) {
	base := Chain{NewStep("where", IRString("status"), IRString("paid"))}
	extended := base.Append(NewStep("limit", IRInt(10)))

	assert.Len(t, base, 1)
	assert.Len(t, extended, 2)
	assert.Equal(t, "limit", extended[1].Name)
}

func TestChainAppendSharesNoBackingArray(t *testing.T) {
	base := make(Chain, 1, 8)
	base[0] = NewStep("where", IRString("a"), IRInt(1))

	left := base.Append(NewStep("limit", IRInt(1)))
	right := base.Append(NewStep("offset", IRInt(2)))

	assert.Equal(t, "limit", left[1].Name)
	assert.Equal(t, "offset", right[1].Name)
}

func TestChainEqual(t *testing.T) {
	a := Chain{NewStep("where", IRString("x"), IRInt(1)), NewStep("limit", IRInt(5))}
	b := Chain{NewStep("where", IRString("x"), IRInt(1)), NewStep("limit", IRInt(5))}
	c := Chain{NewStep("limit", IRInt(5)), NewStep("where", IRString("x"), IRInt(1))}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Chain(nil).Equal(Chain{}))
}

func TestChainNames(t *testing.T) {
	c := Chain{NewStep("where"), NewStep("order"), NewStep("limit")}
	assert.Equal(t, []string{"where", "order", "limit"}, c.Names())
}

func TestNewStepNilArgs(t *testing.T) {
	s := NewStep("all")
	assert.NotNil(t, s.Args)
	assert.Empty(t, s.Args)
}

func TestInspect(t *testing.T) {
	tests := []struct {
		v    IRValue
		want string
	}{
		{IRString("paid"), `"paid"`},
		{IRInt(10), "10"},
		{IRBool(true), "true"},
		{IRNull{}, "null"},
		{nil, "null"},
		{IRArray{IRString("a"), IRString("b")}, `["a","b"]`},
		{IRObject{"k": IRInt(1)}, `{"k":1}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Inspect(tt.v))
	}
}

func TestInspectStep(t *testing.T) {
	assert.Equal(t, `where("status", "paid")`, InspectStep(NewStep("where", IRString("status"), IRString("paid"))))
	assert.Equal(t, `all()`, InspectStep(NewStep("all")))
}
