package tabular

import (
	"reflect"
	"testing"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "a,b,c",
			want: []string{"a", "b", "c"},
		},
		{
			name: "quoted field with embedded comma",
			line: `Name,"Description, with comma",123`,
			want: []string{"Name", "Description, with comma", "123"},
		},
		{
			name: "surrounding spaces trimmed",
			line: " a , b ,c ",
			want: []string{"a", "b", "c"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c",
			want: []string{"a", "", "c"},
		},
		{
			name: "unterminated quote swallows rest of line",
			line: `a,"b,c`,
			want: []string{"a", "b,c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line, ',')
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		line string
		want rune
	}{
		{"commas only", "a,b,c", ','},
		{"semicolons only", "a;b;c", ';'},
		{"semicolon majority", "a;b;c,d", ';'},
		{"comma majority", "a,b,c;d", ','},
		{"tie favors semicolon", "a,b;c", ';'},
		{"quoted delimiters ignored", `"a;b;c",d`, ','},
		{"no delimiter at all", "abc", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.line); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestRowsSkipsHeaderAndEmptyLines(t *testing.T) {
	text := "col1,col2\r\n\r\na,b\nc,d\n\n"

	var rows [][]string
	for row := range Rows(text, ',') {
		rows = append(rows, row)
	}

	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows = %v, want %v", rows, want)
	}
}

func TestRowsIsRestartable(t *testing.T) {
	text := "h1,h2\na,b\nc,d"
	seq := Rows(text, ',')

	collect := func() [][]string {
		var out [][]string
		for row := range seq {
			out = append(out, row)
		}
		return out
	}

	first := collect()
	second := collect()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass %v differs from first %v", second, first)
	}
}

func TestRowsTooShortPayload(t *testing.T) {
	for _, text := range []string{"", "only-a-header", "\r\n\n"} {
		count := 0
		for range Rows(text, ',') {
			count++
		}
		if count != 0 {
			t.Errorf("Rows(%q) yielded %d rows, want 0", text, count)
		}
	}
}

func TestLocateColumn(t *testing.T) {
	header := []string{"Nome", "Segmento de Atuação", "Estágio", "Colaboradores"}

	tests := []struct {
		name       string
		candidates []string
		want       int
	}{
		{"exact substring", []string{"segmento"}, 1},
		{"case insensitive", []string{"ESTÁGIO"}, 2},
		{"earliest header match wins", []string{"colaborador", "segmento"}, 1},
		{"no match", []string{"cidade"}, -1},
		{"empty candidate ignored", []string{"", "colaborador"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocateColumn(header, tt.candidates...); got != tt.want {
				t.Errorf("LocateColumn(%v) = %d, want %d", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	row := []string{"a", "b"}
	if got := Field(row, 1); got != "b" {
		t.Errorf("Field(row, 1) = %q, want %q", got, "b")
	}
	if got := Field(row, 5); got != "" {
		t.Errorf("Field(row, 5) = %q, want empty", got)
	}
	if got := Field(row, -1); got != "" {
		t.Errorf("Field(row, -1) = %q, want empty", got)
	}
}
