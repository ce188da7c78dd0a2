package resolve

import (
	"fmt"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Axis parts reported in Outcome.Part.
const (
	PartXAxis = "x-axis"
	PartYAxis = "y-axis"
)

// Outcome records one resolution failure.
type Outcome struct {
	Kind    xdf.Kind
	Index   int // position within the catalog sequence of Kind
	Title   string
	Address uint32
	// Part is empty for the element itself or names the failed axis.
	Part string
	Err  error
}

func (o Outcome) String() string {
	part := ""
	if o.Part != "" {
		part = " " + o.Part
	}
	return fmt.Sprintf("%s %q @ 0x%X%s: %v", o.Kind, o.Title, o.Address, part, o.Err)
}

// Report summarizes a resolution run.
type Report struct {
	Resolved   int
	Unresolved int
	Outcomes   []Outcome
}

// OK reports whether every element and axis resolved.
func (r *Report) OK() bool {
	return len(r.Outcomes) == 0
}
