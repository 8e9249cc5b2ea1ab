package tabular

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestReadCSVSeparators(t *testing.T) {
	tests := []struct {
		name string
		data string
		want [][]string
	}{
		{
			name: "comma",
			data: "Data,Kwota\n2025-01-05,12.50\n",
			want: [][]string{{"Data", "Kwota"}, {"2025-01-05", "12.50"}},
		},
		{
			name: "semicolon",
			data: "Data;Kwota\n2025-01-05;12,50\n",
			want: [][]string{{"Data", "Kwota"}, {"2025-01-05", "12,50"}},
		},
		{
			name: "tab",
			data: "Data\tKwota\n2025-01-05\t12.50\n",
			want: [][]string{{"Data", "Kwota"}, {"2025-01-05", "12.50"}},
		},
		{
			name: "utf-8 BOM",
			data: "\xEF\xBB\xBFData,Kwota\n2025-01-05,1\n",
			want: [][]string{{"Data", "Kwota"}, {"2025-01-05", "1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grids, err := Read([]byte(tt.data), "export.csv")
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(grids) != 1 {
				t.Fatalf("got %d grids, want 1", len(grids))
			}
			if diff := cmp.Diff(tt.want, grids[0].Cells); diff != "" {
				t.Errorf("cells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadCSVWindows1250(t *testing.T) {
	// "Artykuł;Opłata" in cp1250 is not valid UTF-8, forcing the cp1250
	// decoder path.
	encoded, _, err := transform.Bytes(charmap.Windows1250.NewEncoder(),
		[]byte("Artykuł;Opłata\nON;120,50\n"))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	grids, err := Read(encoded, "export.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"Artykuł", "Opłata"}, {"ON", "120,50"}}
	if diff := cmp.Diff(want, grids[0].Cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	encoded, _, err := transform.Bytes(enc.NewEncoder(),
		[]byte("Data;Kwota\n2025-01-05;7\n"))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	grids, err := Read(encoded, "export.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"Data", "Kwota"}, {"2025-01-05", "7"}}
	if diff := cmp.Diff(want, grids[0].Cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHTMLTable(t *testing.T) {
	doc := `<html><body>
<table>
<tr><th>Data</th><th>Kwota</th></tr>
<tr><td>2025-01-05</td><td> 12.50 </td></tr>
</table>
</body></html>`

	grids, err := Read([]byte(doc), "export.xls")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"Data", "Kwota"}, {"2025-01-05", "12.50"}}
	if diff := cmp.Diff(want, grids[0].Cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(nil, "empty.csv"); err == nil {
		t.Error("empty file should not read")
	}
	if _, err := Read([]byte{0x00, 0x01, 0x02, 0xFF}, "binary.bin"); err == nil {
		t.Error("binary garbage should not read")
	}
}

func TestGridHelpers(t *testing.T) {
	g := Grid{Name: "s", Cells: [][]string{
		{" Data ", "Kwota", "", "Kwota"},
		{"2025-01-05"},
	}}

	if got := g.Cell(0, 0); got != "Data" {
		t.Errorf("Cell(0,0) = %q, want Data", got)
	}
	if got := g.Cell(1, 3); got != "" {
		t.Errorf("Cell out of ragged row = %q, want empty", got)
	}
	if got := g.Cell(9, 0); got != "" {
		t.Errorf("Cell out of range = %q, want empty", got)
	}

	idx := g.HeaderIndex(0)
	if idx["Data"] != 0 {
		t.Errorf("HeaderIndex[Data] = %d, want 0", idx["Data"])
	}
	// Duplicate captions keep the first column.
	if idx["Kwota"] != 1 {
		t.Errorf("HeaderIndex[Kwota] = %d, want 1", idx["Kwota"])
	}
	if _, ok := idx[""]; ok {
		t.Error("empty caption should not be indexed")
	}

	if SheetByName([]Grid{g}, "s") == nil {
		t.Error("SheetByName should find s")
	}
	if SheetByName([]Grid{g}, "other") != nil {
		t.Error("SheetByName should return nil for unknown name")
	}
}
