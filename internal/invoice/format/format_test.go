package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2025, time.January, 17, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "INV-20250117-0042", FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ4}", issued, 42))
	assert.Equal(t, "INV-20250117-0001", FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ4}", issued, 1))
	assert.Equal(t, "25/01/000123", FormatInvoiceNumber("{YY}/{MM}/{SEQ6}", issued, 123))
}

func TestFormatInvoiceNumberPadsSequence(t *testing.T) {
	issued := time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-20251203-9999", FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ4}", issued, 9999))
	// Sequences past the pad width keep all digits.
	assert.Equal(t, "INV-20251203-10001", FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ4}", issued, 10001))
}
