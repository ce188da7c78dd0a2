// Package resolve decodes the elements of a definition catalog against a firmware image.
//
// Each element is resolved on its own. A failure marks only that element (or one
// table axis) unresolved and is listed in the Report; the run carries on with the
// rest. Resolution never modifies the firmware buffer and produces the same values
// every time for the same inputs.
//
//	r := resolve.New(resolve.WithWorkers(4))
//	report, err := r.Resolve(ctx, catalog, buf)
//	if err != nil {
//		return err // only context cancellation
//	}
//	for _, o := range report.Outcomes {
//		fmt.Println(o)
//	}
package resolve
