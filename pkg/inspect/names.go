package inspect

import (
	"fmt"
	"strings"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// kindNames maps accepted kind spellings to kinds.
var kindNames = map[string]xdf.Kind{
	"constant":  xdf.KindConstant,
	"constants": xdf.KindConstant,
	"const":     xdf.KindConstant,
	"flag":      xdf.KindFlag,
	"flags":     xdf.KindFlag,
	"table":     xdf.KindTable,
	"tables":    xdf.KindTable,
	"map":       xdf.KindTable,
	"maps":      xdf.KindTable,
}

// ResolveKindName resolves a kind name (case-insensitive, singular or plural).
func ResolveKindName(name string) (xdf.Kind, bool) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// KindPlural returns the lower-case plural used in listings.
func KindPlural(k xdf.Kind) string {
	return strings.ToLower(k.String()) + "s"
}

// ResolveCategoryName returns the category spelled as in the catalog.
func ResolveCategoryName(cat *xdf.Catalog, name string) (string, bool) {
	for _, c := range cat.Categories() {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return "", false
}

func formatAddress(a uint32) string {
	return fmt.Sprintf("0x%X", a)
}
