// Package format renders invoice numbers from a template.
package format

import (
	"fmt"
	"strings"
	"time"
)

// FormatInvoiceNumber expands the placeholders in template for the given
// issue date and per-day sequence. Supported placeholders: {YYYY}, {YY},
// {MM}, {DD}, {SEQ4}, {SEQ6}.
//
// The default template "INV-{YYYY}{MM}{DD}-{SEQ4}" yields e.g.
// INV-20250117-0042.
func FormatInvoiceNumber(template string, issuedAt time.Time, seq int64) string {
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", issuedAt.Year()),
		"{YY}", fmt.Sprintf("%02d", issuedAt.Year()%100),
		"{MM}", fmt.Sprintf("%02d", int(issuedAt.Month())),
		"{DD}", fmt.Sprintf("%02d", issuedAt.Day()),
		"{SEQ4}", fmt.Sprintf("%04d", seq),
		"{SEQ6}", fmt.Sprintf("%06d", seq),
	)
	return r.Replace(template)
}
