package xdfexport_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/xdfexport/xdfexport-go/internal/fixture"
	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/inspect"
	"github.com/xdfexport/xdfexport-go/pkg/pipeline"
	"github.com/xdfexport/xdfexport-go/pkg/runlog"
)

// TestE2E_ExportAllFormats runs a full export with an event log, reads the
// structured outputs back and browses them.
func TestE2E_ExportAllFormats(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dir := t.TempDir()
	def := fixture.WriteFile(t, dir, "ecu.xdf", fixture.Sample().Bytes())
	bin := fixture.WriteFile(t, dir, "ecu.bin", fixture.SampleImage())
	logPath := filepath.Join(dir, "runs.xlog")

	events, err := runlog.NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	res, err := pipeline.Run(ctx, pipeline.Request{
		Definition: def,
		Firmware:   bin,
		Formats:    export.IDs(),
	}, pipeline.WithEventLogger(events), pipeline.WithWorkers(4))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := events.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := res.Err(); err != nil {
		t.Fatalf("format errors: %v", err)
	}
	if len(res.Files) != len(export.IDs()) {
		t.Fatalf("wrote %d files, want %d", len(res.Files), len(export.IDs()))
	}

	// Step 1: json, yaml and cbor decode to the same document.
	base := pipeline.DefaultOutputBase(bin)
	var docs []*export.Document
	for _, ext := range []string{"json", "yaml", "cbor"} {
		doc, err := export.ReadDocument(export.OutputPath(base, ext))
		if err != nil {
			t.Fatalf("ReadDocument(%s) failed: %v", ext, err)
		}
		docs = append(docs, doc)
	}
	for i, doc := range docs[1:] {
		if diff := cmp.Diff(docs[0], doc, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("document %d differs from json (-json +other):\n%s", i+1, diff)
		}
	}
	if docs[0].Firmware == nil || docs[0].Firmware.Size != len(fixture.SampleImage()) {
		t.Errorf("firmware = %+v, want size %d", docs[0].Firmware, len(fixture.SampleImage()))
	}

	// Step 2: the exported document can be browsed like a live catalog.
	insp, err := inspect.OpenDocument(export.OutputPath(base, "json"))
	if err != nil {
		t.Fatalf("OpenDocument failed: %v", err)
	}
	idle, err := insp.Get("constants/Idle Speed")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if idle.Value != 42 {
		t.Errorf("Idle Speed = %v, want 42", idle.Value)
	}
	flag, err := insp.Get("@0x20")
	if err != nil {
		t.Fatalf("Get(@0x20) failed: %v", err)
	}
	if !flag.Set {
		t.Error("Closed Loop should be set")
	}

	// Step 3: the event log holds one complete, successful run.
	reader, err := runlog.NewReader(logPath)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var last runlog.Event
	n := 0
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if ev.RunID != res.RunID {
			t.Errorf("event run ID = %s, want %s", ev.RunID, res.RunID)
		}
		last = ev
		n++
	}
	if n == 0 {
		t.Fatal("event log is empty")
	}
	if last.Stage != runlog.StageDone || last.Result == nil || !last.Result.Success {
		t.Errorf("last event = %+v, want successful done", last)
	}
	if last.Result != nil && len(last.Result.Files) != len(res.Files) {
		t.Errorf("logged %d files, want %d", len(last.Result.Files), len(res.Files))
	}
}

// TestE2E_BatchAndResolve exports two images and checks that only the patched
// value differs between them.
func TestE2E_BatchAndResolve(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dir := t.TempDir()
	def := fixture.WriteFile(t, dir, "ecu.xdf", fixture.Sample().Bytes())
	stock := fixture.WriteFile(t, dir, "stock.bin", fixture.SampleImage())
	img := fixture.SampleImage()
	img[0x10] = 0x50
	tuned := fixture.WriteFile(t, dir, "tuned.bin", img)

	out := filepath.Join(dir, "out")
	res, err := pipeline.Batch(ctx, pipeline.BatchRequest{
		Definition: def,
		Firmware:   []string{stock, tuned},
		OutputDir:  out,
		Formats:    []string{"json"},
	}, pipeline.WithWorkers(2))
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	if err := res.Err(); err != nil {
		t.Fatalf("Batch item errors: %v", err)
	}

	a, err := export.ReadDocument(filepath.Join(out, "stock.json"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := export.ReadDocument(filepath.Join(out, "tuned.json"))
	if err != nil {
		t.Fatal(err)
	}

	ignore := cmpopts.IgnoreFields(export.Document{}, "Firmware")
	diff := cmp.Diff(a, b, ignore)
	if diff == "" {
		t.Fatal("stock and tuned documents should differ")
	}
	if *a.Constants[0].Value != 42 || *b.Constants[0].Value != 80 {
		t.Errorf("Idle Speed stock=%v tuned=%v, want 42 and 80", *a.Constants[0].Value, *b.Constants[0].Value)
	}

	// Flags and tables are identical.
	if d := cmp.Diff(a.Flags, b.Flags); d != "" {
		t.Errorf("flags differ:\n%s", d)
	}
	if d := cmp.Diff(a.Tables, b.Tables); d != "" {
		t.Errorf("tables differ:\n%s", d)
	}

	// Resolve gives the same values without writing anything.
	cat, rres, err := pipeline.Resolve(ctx, pipeline.Request{Definition: def, Firmware: tuned})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !rres.Report.OK() || cat.Constants[0].Value != 80 {
		t.Errorf("Resolve: report ok=%v value=%v", rres.Report.OK(), cat.Constants[0].Value)
	}
}
