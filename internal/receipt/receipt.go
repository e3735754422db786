// Package receipt renders a transaction as a printable text block. It is a
// pure projection: reading the store happens before the call, nothing here
// writes back.
package receipt

import (
	"fmt"
	"strings"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"
)

const width = 32

// Render produces the shareable receipt: store banner, header fields, one
// line per item as qty x unit = subtotal, and the grand total.
func Render(storeName string, t *model.Transaction, items []repository.OrderDetailItem) string {
	var b strings.Builder
	rule := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	b.WriteString(center(storeName) + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Receipt : %s\n", shortID(t.ID))
	fmt.Fprintf(&b, "Date    : %s\n", t.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Status  : %s\n", t.Status)
	b.WriteString(thin + "\n")

	for _, item := range items {
		unit := item.Subtotal / int64(item.Qty)
		b.WriteString(item.Name + "\n")
		fmt.Fprintf(&b, "  %d x %d = %d\n", item.Qty, unit, item.Subtotal)
	}

	b.WriteString(thin + "\n")
	fmt.Fprintf(&b, "%-8s%24d\n", "TOTAL", t.TotalPrice)
	b.WriteString(rule + "\n")
	b.WriteString(center("Thank you!") + "\n")
	return b.String()
}

func center(s string) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
