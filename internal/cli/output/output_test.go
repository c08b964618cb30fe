package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

type candidateRow struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Stage   string `json:"stage" table:"wide"`
	Ignored string `json:"-" table:"-"`
	hidden  string
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format Format
		wide   bool
		want   Formatter
	}{
		{FormatJSON, false, &JSONFormatter{}},
		{FormatYAML, false, &YAMLFormatter{}},
		{FormatTable, false, &TableFormatter{}},
		{FormatTable, true, &TableFormatter{Wide: true}},
		{"unknown", false, &TableFormatter{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := NewFormatter(tt.format, tt.wide); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewFormatter() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"token": "TSQR1.a<b>.c", "valid": true}
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"token": "TSQR1.a<b>.c"`) {
		t.Errorf("output should not escape HTML: %s", out)
	}
	if !strings.Contains(out, `"valid": true`) {
		t.Errorf("missing valid field: %s", out)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	type result struct {
		Valid     bool           `json:"valid"`
		Reason    string         `json:"reason"`
		Timestamp int64          `json:"timestamp"`
		Nonce     string         `json:"nonce"`
		Empty     string         `json:"empty,omitempty"`
		Payload   map[string]any `json:"payload"`
	}
	data := result{
		Valid:     true,
		Reason:    "ok",
		Timestamp: 1_700_000_000,
		Nonce:     "123",
		Payload:   map[string]any{"tenant_id": "demo"},
	}

	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "valid: true\n" +
		"reason: ok\n" +
		"timestamp: 1700000000\n" +
		"nonce: \"123\"\n" +
		"payload:\n" +
		"  tenant_id: demo\n"
	if buf.String() != want {
		t.Errorf("Format() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	row := candidateRow{Index: 1, Text: "TSQR1.x.y", Stage: "original"}
	if err := (&TableFormatter{}).Format(&buf, row); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "FIELD") || !strings.HasPrefix(lines[1], "index") || !strings.Contains(lines[2], "TSQR1.x.y") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []*candidateRow{
		{Index: 1, Text: "first", Stage: "original"},
		nil,
		{Index: 2, Text: "second", Stage: "grayscale"},
	}

	t.Run("narrow", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "INDEX  TEXT") {
			t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
		}
		if strings.Contains(out, "STAGE") || strings.Contains(out, "original") {
			t.Errorf("wide column shown in narrow mode:\n%s", out)
		}
		if len(strings.Split(strings.TrimSpace(out), "\n")) != 4 {
			t.Errorf("expected header and 3 rows:\n%s", out)
		}
	})

	t.Run("wide", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{Wide: true}).Format(&buf, rows); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if !strings.Contains(buf.String(), "STAGE") || !strings.Contains(buf.String(), "grayscale") {
			t.Errorf("wide column missing:\n%s", buf.String())
		}
	})

	t.Run("no headers", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{NoHeaders: true}).Format(&buf, rows[:1]); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.Contains(buf.String(), "INDEX") {
			t.Errorf("headers printed:\n%s", buf.String())
		}
	})
}

func TestTableFormatter_MapIsSorted(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{
		"tenant_id":    "demo",
		"amount_cents": json.Number("1299"),
		"nonce":        "n-1",
	}
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"KEY", "amount_cents", "nonce", "tenant_id"}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.Contains(lines[1], "1299") {
		t.Errorf("json.Number not rendered: %q", lines[1])
	}
}

type customTable struct{}

func (customTable) Table(wide bool) *Table {
	t := &Table{Headers: []string{"A"}}
	if wide {
		t.AddRow("wide")
	} else {
		t.AddRow("narrow")
	}
	return t
}

func TestTableFormatter_Tabler(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, customTable{}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "A\nwide\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestTableFormatter_Fallbacks(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, nil); err != nil || buf.Len() != 0 {
			t.Errorf("Format(nil) = %q, %v", buf.String(), err)
		}
	})

	t.Run("scalar falls back to JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.TrimSpace(buf.String()) != "42" {
			t.Errorf("Format(42) = %q", buf.String())
		}
	})

	t.Run("slice of strings", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, []string{"a", "b"}); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if buf.String() != "VALUE\na\nb\n" {
			t.Errorf("Format() = %q", buf.String())
		}
	})
}

func TestFormatValue(t *testing.T) {
	str := "x"
	var nilPtr *string
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"empty string", "", "-"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"float", 1.5, "1.50"},
		{"pointer", &str, "x"},
		{"nil pointer", nilPtr, "-"},
		{"slice", []string{"a", "b"}, "a,b"},
		{"empty slice", []int{}, "-"},
		{"map", map[string]int{"a": 1}, "{1 keys}"},
		{"duration", 90 * time.Second, "1m30s"},
		{"time", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "2026-01-02T03:04:05Z"},
		{"zero time", time.Time{}, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"TenantID":      "tenant_i_d",
		"DecodedText":   "decoded_text",
		"valid":         "valid",
		"TransactionId": "transaction_id",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{Headers: []string{"NAME", "VALUE"}}
	table.AddRow("reason", "ok")
	table.AddRow("valid", "true")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "NAME    VALUE\nreason  ok\nvalid   true\n"
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}
}
