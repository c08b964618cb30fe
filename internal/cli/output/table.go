package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Tabler is implemented by values that render their own table.
type Tabler interface {
	Table(wide bool) *Table
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table.
//
// Supported values: *Table, Tabler, a struct (one FIELD/VALUE row per
// field), a slice of structs (one row per element) and a map (KEY/VALUE
// rows in key order). Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch v := data.(type) {
	case *Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case Tabler:
		return v.Table(f.Wide).RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(reflect.ValueOf(data), f.Wide)
	if err != nil {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(v reflect.Value, wide bool) (*Table, error) {
	v = indirect(v)
	if !v.IsValid() {
		return nil, fmt.Errorf("nil value")
	}

	switch v.Kind() {
	case reflect.Struct:
		t := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, f := range columns(v.Type(), wide) {
			t.AddRow(f.name, formatValue(v.Field(f.index)))
		}
		return t, nil

	case reflect.Map:
		t := &Table{Headers: []string{"KEY", "VALUE"}}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return formatValue(keys[i]) < formatValue(keys[j])
		})
		for _, k := range keys {
			t.AddRow(formatValue(k), formatValue(v.MapIndex(k)))
		}
		return t, nil

	case reflect.Slice, reflect.Array:
		elem := v.Type().Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			t := &Table{Headers: []string{"VALUE"}}
			for i := range v.Len() {
				t.AddRow(formatValue(v.Index(i)))
			}
			return t, nil
		}

		cols := columns(elem, wide)
		t := &Table{}
		for _, c := range cols {
			t.Headers = append(t.Headers, strings.ToUpper(c.name))
		}
		for i := range v.Len() {
			row := indirect(v.Index(i))
			cells := make([]string, len(cols))
			if row.IsValid() {
				for j, c := range cols {
					cells[j] = formatValue(row.Field(c.index))
				}
			}
			t.AddRow(cells...)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported type: %s", v.Kind())
}

type column struct {
	name  string
	index int
}

// columns lists the exported fields of t named by their json tag.
// Fields tagged table:"-" are skipped, table:"wide" only in wide mode.
func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("table")
		if tag == "-" || (tag == "wide" && !wide) {
			continue
		}

		name := toSnakeCase(field.Name)
		if jsonName, _, _ := strings.Cut(field.Tag.Get("json"), ","); jsonName != "" && jsonName != "-" {
			name = jsonName
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// formatValue formats a reflect.Value for a table cell.
func formatValue(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return "-"
	}

	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339)
	}
	if s, ok := v.Interface().(fmt.Stringer); ok && v.Kind() != reflect.Map {
		return s.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return "-"
		}
		return v.String()
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		parts := make([]string, v.Len())
		for i := range v.Len() {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// toSnakeCase converts CamelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
