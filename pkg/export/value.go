package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// descriptionLimit is the rune budget for descriptions in tabular output.
const descriptionLimit = 100

// number formats v with the given number of decimals; -1 uses the shortest form.
func number(v float64, decimals int) string {
	if decimals < 0 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func address(a uint32) string {
	return fmt.Sprintf("0x%X", a)
}

func setState(set bool) string {
	if set {
		return "Set"
	}
	return "Not Set"
}

func size(e *xdf.Element) string {
	return fmt.Sprintf("%dx%d", e.Rows, e.Cols)
}

func unresolved(e *xdf.Element) string {
	if e.Reason == "" {
		return Unresolved
	}
	return Unresolved + ": " + e.Reason
}

// summary is the single-cell value of an element: the scalar, flag state or grid size.
func summary(e *xdf.Element) string {
	if e.Status == xdf.StatusUnresolved {
		return unresolved(e)
	}
	switch e.Kind {
	case xdf.KindFlag:
		if e.Status != xdf.StatusResolved {
			return ""
		}
		return setState(e.Set)
	case xdf.KindTable:
		return size(e)
	default:
		if e.Status != xdf.StatusResolved {
			return ""
		}
		return number(e.Value, e.Decimals)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// axisLabels returns n header labels for a table axis. Missing or unresolved
// axes fall back to cell indices.
func axisLabels(a *xdf.Axis, n int) []string {
	labels := make([]string, n)
	switch {
	case a != nil && !a.Bound && len(a.Labels) == n:
		copy(labels, a.Labels)
	case a != nil && a.Bound && a.Status == xdf.StatusResolved && len(a.Values) == n:
		for i, v := range a.Values {
			labels[i] = number(v, a.Decimals)
		}
	default:
		for i := range labels {
			labels[i] = strconv.Itoa(i)
		}
	}
	return labels
}

// singleLine collapses whitespace so free text fits in one line or cell.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Value returns the single-cell rendering of an element shared by every tabular
// format: the scaled value, Set/Not Set, the grid size, or UNRESOLVED with its reason.
// Pending elements render as an empty string.
func Value(e *xdf.Element) string {
	return summary(e)
}

// Number formats v with the given number of decimals; -1 uses the shortest form.
func Number(v float64, decimals int) string {
	return number(v, decimals)
}

// AxisLabels returns n header labels for a table axis, falling back to indices.
func AxisLabels(a *xdf.Axis, n int) []string {
	return axisLabels(a, n)
}
