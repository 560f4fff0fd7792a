package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// InvoiceNumber builds a human readable invoice number like INV-20240131-1A2B3C4D.
func InvoiceNumber(at time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[len(short)-8:]
	}
	return fmt.Sprintf("INV-%s-%s", at.UTC().Format("20060102"), short)
}
