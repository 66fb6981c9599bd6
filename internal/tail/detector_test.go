package tail

import (
	"testing"
)

func TestDetectHeaderLeadingLiteral(t *testing.T) {
	row := []string{"Scan Sweep Time (Sec)", "Scan Number", "101 (Vdc)", "102 (Adc)"}
	bindings, ok := detectHeader(row)
	if !ok {
		t.Fatal("expected header recognition")
	}
	want := []Binding{{Channel: "101 (Vdc)", Column: 2}, {Channel: "102 (Adc)", Column: 3}}
	assertBindings(t, bindings, want)
}

func TestDetectHeaderRowMarkerLabel(t *testing.T) {
	row := []string{"Time", "scan number", "ChA", "ChB"}
	bindings, ok := detectHeader(row)
	if !ok {
		t.Fatal("expected header recognition via row-marker label")
	}
	assertBindings(t, bindings, []Binding{{Channel: "ChA", Column: 2}, {Channel: "ChB", Column: 3}})
}

func TestDetectHeaderRowMarkerCaseInsensitive(t *testing.T) {
	for _, label := range []string{"Scan Number", "SCAN NUMBER", " scan number "} {
		if _, ok := detectHeader([]string{"T", label, "Ch"}); !ok {
			t.Errorf("label %q not recognized", label)
		}
	}
}

func TestDetectHeaderSkipsBlankCells(t *testing.T) {
	row := []string{"T", "Scan Number", "ChA", "", "  ", "ChD"}
	bindings, ok := detectHeader(row)
	if !ok {
		t.Fatal("expected header recognition")
	}
	assertBindings(t, bindings, []Binding{{Channel: "ChA", Column: 2}, {Channel: "ChD", Column: 5}})
}

func TestDetectHeaderRejectsDataAndBannerRows(t *testing.T) {
	rows := [][]string{
		{"2024-01-01T00:00:00", "1", "3.5", "2.1"},
		{"Instrument", "34970A"},
		{"single"},
		{},
	}
	for _, row := range rows {
		if _, ok := detectHeader(row); ok {
			t.Errorf("row %v should not be a header", row)
		}
	}
}

func TestDecodeLineStripsBOMAndTerminators(t *testing.T) {
	text, ok := decodeLine([]byte("\xef\xbb\xbfScan Sweep Time (Sec),Scan Number\r\n"), true)
	if !ok {
		t.Fatal("decode failed")
	}
	if text != "Scan Sweep Time (Sec),Scan Number" {
		t.Fatalf("unexpected decoded text: %q", text)
	}

	// BOM bytes mid-file are not a BOM and must survive replacement-free.
	text, ok = decodeLine([]byte("a,b\n"), false)
	if !ok || text != "a,b" {
		t.Fatalf("unexpected mid-file decode: %q ok=%v", text, ok)
	}
}

func TestDecodeLineToleratesInvalidBytes(t *testing.T) {
	text, ok := decodeLine([]byte("a,\xff\xfe,b\n"), false)
	if !ok {
		t.Fatal("invalid bytes must not fail the decode")
	}
	if row, parsed := parseRow(text); !parsed || len(row) != 3 {
		t.Fatalf("decoded line should still split into 3 cells, got %v", row)
	}
}

func TestParseRowLazyQuotes(t *testing.T) {
	row, ok := parseRow(`2024-01-01,1,3.5,"5" V`)
	if !ok || len(row) != 4 {
		t.Fatalf("expected lenient quote handling, got %v ok=%v", row, ok)
	}
}

func assertBindings(t *testing.T, got, want []Binding) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("binding count: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("binding %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}
