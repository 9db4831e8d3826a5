// Package testutil holds the orders fixture shared by package tests: the
// catalog text, its resource spec and a small set of seed rows.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/ir"
)

// OrdersCatalog declares the Order resource in CUE.
const OrdersCatalog = `package catalog

resource: Order: {
	table: "orders"
	fields: {
		id:          int
		status:      string
		region:      string
		total_cents: int
		paid:        bool
	}
}
`

// OrdersSpec returns the resource spec OrdersCatalog loads to.
// Each call returns a fresh copy so tests may modify it.
func OrdersSpec() ir.ResourceSpec {
	return ir.ResourceSpec{
		Name:  "Order",
		Table: "orders",
		Fields: map[string]string{
			"id":          "int",
			"status":      "string",
			"region":      "string",
			"total_cents": "int",
			"paid":        "bool",
		},
	}
}

// OrderRows returns three orders. Orders 1 and 3 are paid.
func OrderRows() []ir.IRObject {
	return []ir.IRObject{
		order(1, "paid", "eu", 300, true),
		order(2, "open", "us", 100, false),
		order(3, "paid", "us", 200, true),
	}
}

func order(id int64, status, region string, total int64, paid bool) ir.IRObject {
	return ir.IRObject{
		"id":          ir.IRInt(id),
		"status":      ir.IRString(status),
		"region":      ir.IRString(region),
		"total_cents": ir.IRInt(total),
		"paid":        ir.IRBool(paid),
	}
}

// WriteCatalog writes OrdersCatalog as dir/orders.cue, creating dir.
func WriteCatalog(t testing.TB, dir string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "orders.cue")
	require.NoError(t, os.WriteFile(path, []byte(OrdersCatalog), 0644))
	return path
}
