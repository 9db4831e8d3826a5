package query

import (
	"strings"

	"github.com/roach88/querychain/internal/ir"
)

// Describe renders a chain for humans: the display name followed by each
// step as .name(args), e.g. Order.where("status", "paid").limit(10).
func Describe(displayName string, chain ir.Chain) string {
	var b strings.Builder
	b.WriteString(displayName)
	for _, s := range chain {
		b.WriteByte('.')
		b.WriteString(ir.InspectStep(s))
	}
	return b.String()
}

// Describe renders the recorder. An empty chain renders as the resource's
// display name alone.
func (r *Recorder) Describe() string {
	return Describe(r.resource.DisplayName(), r.chain)
}

// String implements fmt.Stringer.
func (r *Recorder) String() string {
	return r.Describe()
}
