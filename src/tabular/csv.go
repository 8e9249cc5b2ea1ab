package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encodings tried in order. Exports from Polish systems ship cp1250 more
// often than not, but operators also re-save files through tools that emit
// UTF-8, UTF-8 with BOM, or UTF-16.
var csvEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"windows-1250", charmap.Windows1250},
	{"latin1", charmap.ISO8859_1},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
}

var csvSeparators = []rune{0, ',', ';', '\t'}

func readCSV(data []byte) ([]Grid, error) {
	for _, e := range csvEncodings {
		text, ok := decodeBytes(data, e.enc)
		if !ok {
			continue
		}
		for _, sep := range csvSeparators {
			d := sep
			if d == 0 {
				d = sniffSeparator(text)
			}
			cells, err := parseCSV(text, d)
			if err != nil || len(cells) == 0 {
				continue
			}
			if len(cells[0]) < 2 {
				// A one-column parse usually means a wrong separator.
				continue
			}
			return []Grid{{Cells: cells}}, nil
		}
	}
	return nil, fmt.Errorf("%w: no encoding/separator combination yields a table", ErrUnreadableFile)
}

func decodeBytes(data []byte, enc encoding.Encoding) (string, bool) {
	if enc == nil {
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			return "", false
		}
		return string(data), true
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", false
	}
	// A NUL in the decoded text means a multi-byte encoding was decoded
	// byte-wise (UTF-16 read as cp1250); real exports never contain NUL.
	if bytes.ContainsRune(out, utf8.RuneError) || bytes.IndexByte(out, 0) >= 0 {
		return "", false
	}
	return string(out), true
}

func sniffSeparator(text string) rune {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', 0
	for _, cand := range []rune{';', ',', '\t'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

func parseCSV(text string, sep rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}
