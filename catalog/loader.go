package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Load はリストファイル2つを読み込んで Catalog を組み立てます。
func Load(typesPath, colorsPath, enc string) (*Catalog, error) {
	types, err := LoadProductTypesFile(typesPath, enc)
	if err != nil {
		return nil, err
	}
	colors, err := LoadColorsFile(colorsPath, enc)
	if err != nil {
		return nil, err
	}
	c := New(types, colors)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadProductTypesFile は "品種名,価格" 形式のファイルを読み込みます。
func LoadProductTypesFile(path, enc string) ([]TypeEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadProductTypesFile: open %s: %w", path, err)
	}
	defer file.Close()

	r, err := decodeReader(file, enc)
	if err != nil {
		return nil, fmt.Errorf("LoadProductTypesFile: %s: %w", path, err)
	}
	entries, err := ParseProductTypes(r)
	if err != nil {
		return nil, fmt.Errorf("LoadProductTypesFile: read %s: %w", path, err)
	}
	return entries, nil
}

// ParseProductTypes は "名前,価格" のレコードを読みます。価格は書かれた文字列のまま保持し、
// 数値として読めない場合はエラーにします。価格がなければ "0" です。
func ParseProductTypes(r io.Reader) ([]TypeEntry, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []TypeEntry
	rec := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rec++
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		price := "0"
		if len(record) > 1 {
			if raw := strings.TrimSpace(record[1]); raw != "" {
				if _, err := decimal.NewFromString(raw); err != nil {
					return nil, fmt.Errorf("record %d: invalid price %q for %s: %w", rec, raw, name, err)
				}
				price = raw
			}
		}
		entries = append(entries, TypeEntry{Name: name, Price: price})
	}
	return entries, nil
}

// LoadColorsFile は1行1色のファイルを読み込みます。
func LoadColorsFile(path, enc string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadColorsFile: open %s: %w", path, err)
	}
	defer file.Close()

	r, err := decodeReader(file, enc)
	if err != nil {
		return nil, fmt.Errorf("LoadColorsFile: %s: %w", path, err)
	}
	colors, err := ParseColors(r)
	if err != nil {
		return nil, fmt.Errorf("LoadColorsFile: read %s: %w", path, err)
	}
	return colors, nil
}

// ParseColors は1行1色で読み、空行は飛ばします。
func ParseColors(r io.Reader) ([]string, error) {
	var colors []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			colors = append(colors, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return colors, nil
}

func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	var decoder *encoding.Decoder
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		decoder = unicode.UTF8BOM.NewDecoder()
	case "shift_jis", "sjis", "shift-jis":
		decoder = japanese.ShiftJIS.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported list encoding %q", enc)
	}
	return transform.NewReader(r, decoder), nil
}
