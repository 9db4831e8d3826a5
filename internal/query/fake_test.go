package query

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/provider"
)

// memResource is an in-memory provider over a fixed list of rows.
// Its state is a []row that is always replaced, never modified.
type memResource struct {
	ref   ir.ResourceRef
	rows  []row
	calls *int
}

type row struct {
	ID     int64
	Status string
	Total  int64
}

func newOrders() *memResource {
	return &memResource{
		ref: "Order",
		rows: []row{
			{ID: 1, Status: "paid", Total: 300},
			{ID: 2, Status: "open", Total: 100},
			{ID: 3, Status: "paid", Total: 200},
			{ID: 4, Status: "refunded", Total: 50},
		},
		calls: new(int),
	}
}

func (m *memResource) Ref() ir.ResourceRef { return m.ref }
func (m *memResource) DisplayName() string { return string(m.ref) }
func (m *memResource) Default() provider.State { return slices.Clone(m.rows) }

func (m *memResource) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Chainable: provider.NewOpSet("where", "order", "limit", "explode", "count_as_step"),
		Terminal:  provider.NewOpSet("count", "ids", "count_as_step"),
	}
}

func (m *memResource) Apply(state provider.State, name string, args ir.IRArray) (provider.State, error) {
	*m.calls++
	rows := state.([]row)

	switch name {
	case "where":
		if len(args) != 2 {
			return nil, fmt.Errorf("where takes 2 arguments, got %d", len(args))
		}
		field, ok := args[0].(ir.IRString)
		if !ok || field != "status" {
			return nil, fmt.Errorf("unknown field %s", ir.Inspect(args[0]))
		}
		want, ok := args[1].(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("status must be a string")
		}
		var out []row
		for _, r := range rows {
			if r.Status == string(want) {
				out = append(out, r)
			}
		}
		return out, nil

	case "order":
		out := slices.Clone(rows)
		desc := len(args) > 1 && ir.Equal(args[1], ir.IRString("desc"))
		slices.SortStableFunc(out, func(a, b row) int {
			if desc {
				return int(b.Total - a.Total)
			}
			return int(a.Total - b.Total)
		})
		return out, nil

	case "limit":
		if len(args) != 1 {
			return nil, fmt.Errorf("limit takes 1 argument")
		}
		n, ok := args[0].(ir.IRInt)
		if !ok || n < 0 {
			return nil, fmt.Errorf("limit must be a non-negative integer")
		}
		if int(n) >= len(rows) {
			return slices.Clone(rows), nil
		}
		return slices.Clone(rows[:n]), nil

	case "count_as_step":
		return slices.Clone(rows), nil

	case "explode":
		return nil, fmt.Errorf("explode always fails")

	default:
		return nil, fmt.Errorf("unknown method %q", name)
	}
}

func (m *memResource) Call(_ context.Context, state provider.State, name string, _ ir.IRArray) (any, error) {
	rows := state.([]row)
	switch name {
	case "count", "count_as_step":
		return len(rows), nil
	case "ids":
		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unknown terminal %q", name)
	}
}

func ordersResolver(t *testing.T) (*provider.Registry, *memResource) {
	t.Helper()
	orders := newOrders()
	reg, err := provider.NewRegistry(orders)
	require.NoError(t, err)
	return reg, orders
}
