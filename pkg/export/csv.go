package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// CSVHeader is the column layout of the csv format.
var CSVHeader = []string{"Type", "Category", "Title", "Address", "Value", "Units", "Description"}

// CSV writes one row per element: constants, then flags, then tables.
// Tables are summarized as RxC.
type CSV struct{}

// Extension implements Formatter.
func (CSV) Extension() string { return "csv" }

// Format implements Formatter.
func (CSV) Format(w io.Writer, c *xdf.Catalog) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range c.Elements() {
		row := []string{
			e.Kind.String(),
			e.Category,
			e.Title,
			address(e.Address),
			summary(e),
			e.Units,
			truncate(singleLine(e.Description), descriptionLimit),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
