package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/robert-at-pretension-io/regsheet/internal/config"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}, order []string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range order {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range sheets[name] {
			axis, _ := excelize.CoordinatesToCellName(1, i+1)
			row := row
			if err := f.SetSheetRow(name, axis, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("delete sheet: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func uartWorkbook(t *testing.T, path string) {
	writeWorkbook(t, path, map[string][][]interface{}{
		"Version": {
			{nil, "Vendor", "Library", "Name", "Version"},
			{nil, "acme", "periph", "uart", "1.0"},
		},
		"Address Map": {
			{"Block", "Offset", "Range"},
			{"UART", "0x1000", "0x100"},
			{"SPARE", "0x2000", "0x100"},
		},
		"UART": {
			{"Addr", "Reg", "Field", "Bits", "Access", "Reset", "Desc"},
			{"0x0", "CTRL", "EN", "[0]", "RW", 1, "enable"},
			{nil, nil, "MODE", "[2:1]", "RW", nil, nil},
			{"0x4", "DATA{n}, n=range(2)", "VALUE", "[31:0]", "RW", nil, nil},
		},
	}, []string{"Version", "Address Map", "UART"})
}

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Analysis.Cache.Dir = filepath.Join(root, ".cache")
	return cfg
}

func TestRunParsesValidatesAndLints(t *testing.T) {
	root := t.TempDir()
	uartWorkbook(t, filepath.Join(root, "maps", "uart.xlsx"))
	if err := os.WriteFile(filepath.Join(root, "broken.xlsx"), []byte("not a workbook"), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}

	r := New(testConfig(root), nil)
	res, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Summary.Workbooks != 2 || res.Summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	var uart *WorkbookResult
	for i := range res.Workbooks {
		wr := &res.Workbooks[i]
		if strings.HasSuffix(wr.Path, "broken.xlsx") {
			if !strings.HasPrefix(wr.Error, "failed to parse workbook: ") {
				t.Fatalf("broken workbook error = %q", wr.Error)
			}
			continue
		}
		uart = wr
	}
	if uart == nil || uart.Model == nil {
		t.Fatalf("uart workbook not parsed: %+v", res.Workbooks)
	}
	if uart.Model.RegisterCount() != 3 {
		t.Fatalf("expected CTRL, DATA_0, DATA_1; got %d registers", uart.Model.RegisterCount())
	}
	if len(uart.Diagnostics) != 1 || uart.Diagnostics[0].Sheet != "SPARE" {
		t.Fatalf("expected SPARE diagnostic, got %+v", uart.Diagnostics)
	}

	var emptyBlock bool
	for _, v := range uart.Violations {
		if v.Rule == "empty_block" && v.Block == "SPARE" {
			emptyBlock = true
		}
	}
	if !emptyBlock {
		t.Fatalf("expected empty_block violation, got %+v", uart.Violations)
	}
	if !res.HasErrors() {
		t.Fatalf("a failed workbook should count as an error")
	}

	tables := res.Tables()
	if len(tables.Registers) != 3 || tables.Registers[1].Absolute != 0x1004 {
		t.Fatalf("unexpected register table %+v", tables.Registers)
	}
}

func TestRunUsesCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "uart.xlsx")
	uartWorkbook(t, path)

	r := New(testConfig(root), nil)
	first, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Summary.CacheHits != 0 {
		t.Fatalf("cold cache reported hits: %+v", first.Summary)
	}

	second, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Summary.CacheHits != 1 {
		t.Fatalf("expected a cache hit, got %+v", second.Summary)
	}
	a, _ := json.Marshal(first.Workbooks[0].Model)
	b, _ := json.Marshal(second.Workbooks[0].Model)
	if !bytes.Equal(a, b) {
		t.Fatalf("cached model differs:\n%s\n%s", a, b)
	}
	if len(second.Workbooks[0].Diagnostics) != 1 {
		t.Fatalf("diagnostics should be cached too")
	}

	// Changing the content invalidates the entry.
	writeWorkbook(t, path, map[string][][]interface{}{
		"Address Map": {{"Block", "Offset", "Range"}, {"OTHER", 0, 16}},
	}, []string{"Address Map"})
	third, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Summary.CacheHits != 0 || third.Workbooks[0].Model.AddressBlocks[0].Name != "OTHER" {
		t.Fatalf("stale cache entry used: %+v", third.Workbooks[0].Model)
	}
}

func TestRunCacheDisabled(t *testing.T) {
	root := t.TempDir()
	uartWorkbook(t, filepath.Join(root, "uart.xlsx"))

	cfg := testConfig(root)
	off := false
	cfg.Analysis.Cache.Enabled = &off

	r := New(cfg, nil)
	for i := 0; i < 2; i++ {
		res, err := r.Run(context.Background(), root)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.Summary.CacheHits != 0 {
			t.Fatalf("cache disabled but got hits")
		}
	}
	if _, err := os.Stat(cfg.Analysis.Cache.Dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir should not be created, stat err = %v", err)
	}
}

func TestTimingAndMetricsWritten(t *testing.T) {
	root := t.TempDir()
	uartWorkbook(t, filepath.Join(root, "uart.xlsx"))

	cfg := testConfig(root)
	cfg.Analysis.Timing = filepath.Join(root, "timing.jsonl")
	cfg.Analysis.MetricsFile = filepath.Join(root, "regsheet.prom")

	if _, err := New(cfg, nil).Run(context.Background(), root); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(cfg.Analysis.Timing)
	if err != nil {
		t.Fatalf("read timing file: %v", err)
	}
	phases := map[string]bool{}
	for _, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		var ev timelineEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("parse timing event: %v", err)
		}
		phases[ev.Event+"/"+ev.Name] = true
		if ev.Event == "workbook" && ev.Registers != 3 {
			t.Fatalf("workbook event registers = %d, want 3", ev.Registers)
		}
	}
	for _, want := range []string{"stage/scan", "stage/parse", "stage/validate", "stage/lint", "stage/total", "workbook/parse"} {
		if !phases[want] {
			t.Fatalf("missing timing event %s in %v", want, phases)
		}
	}

	prom, err := os.ReadFile(cfg.Analysis.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`regsheet_workbooks_total{status="parsed"} 1`,
		`regsheet_registers_total 3`,
		`regsheet_fields_total 4`,
		`regsheet_parse_duration_seconds_count 1`,
	} {
		if !strings.Contains(string(prom), want) {
			t.Fatalf("metrics missing %q:\n%s", want, prom)
		}
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	uartWorkbook(t, filepath.Join(root, "uart.xlsx"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testConfig(root), nil).Run(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteOutputs(t *testing.T) {
	root := t.TempDir()
	uartWorkbook(t, filepath.Join(root, "uart.xlsx"))

	cfg := testConfig(root)
	cfg.Output.Format = config.FormatIPXACT
	r := New(cfg, nil)
	r.Lint = false
	res, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	outDir := filepath.Join(root, "out")
	written, err := r.WriteOutputs(res, outDir)
	if err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}
	if len(written) != 1 || written[0] != filepath.Join(outDir, "uart.xml") {
		t.Fatalf("written = %v", written)
	}
	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "<ipxact:name>DATA_1</ipxact:name>") {
		t.Fatalf("unexpected output:\n%s", data)
	}
	if len(res.Workbooks[0].Violations) != 0 {
		t.Fatalf("lint disabled but violations reported")
	}
}
