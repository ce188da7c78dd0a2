// Package pipeline runs complete exports: parse the definition, load the
// firmware, resolve values and write each requested format.
//
// Progress is reported one way, through WithProgress and WithEventLogger; the
// caller never influences the run through them. Formats are written
// independently: a failed format is recorded in Result.FormatErrors and the
// others are still written. Output files appear atomically (written to
// <path>.tmp and renamed), so a failed or cancelled format leaves nothing behind.
//
//	res, err := pipeline.Run(ctx, pipeline.Request{
//		Definition: "ecu.xdf",
//		Firmware:   "stock.bin",
//		OutputBase: "out/stock",
//		Formats:    []string{"txt", "csv"},
//	}, pipeline.WithProgress(func(p pipeline.Progress) { fmt.Println(p.Message) }))
package pipeline
