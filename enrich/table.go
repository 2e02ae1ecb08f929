package enrich

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// naValues are the cell spellings read as missing.
var naValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// readTable loads a delimited file with every column typed as string, so
// numeric parsing and missing-value handling stay under our control.
func readTable(r io.Reader, delimiter rune) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

// numericColumn parses a column as floats. ok is false when a present cell is
// not a number.
func numericColumn(df dataframe.DataFrame, name string) ([]float64, bool) {
	s := df.Col(name)
	if s.Err != nil {
		return nil, false
	}
	cells := s.Records()
	out := make([]float64, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if slices.Contains(naValues, c) {
			out[i] = Missing
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			if b, berr := strconv.ParseBool(c); berr == nil {
				out[i] = boolValue(b)
				continue
			}
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// blankHeaders reports which header positions are empty, as in the unnamed
// index column pandas writes. gota renames those to X<i>.
func blankHeaders(data []byte) (map[int]bool, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blank := map[int]bool{}
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			blank[i] = true
		}
	}
	return blank, nil
}

// ReadDataset loads a listing table. Columns holding non-numeric text and
// unnamed index columns are returned in dropped and left out of the dataset.
func ReadDataset(r io.Reader) (ds *Dataset, dropped []string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading listing table: %w", err)
	}
	blank, err := blankHeaders(data)
	if err != nil {
		return nil, nil, fmt.Errorf("reading listing table header: %w", err)
	}
	df, err := readTable(bytes.NewReader(data), ',')
	if err != nil {
		return nil, nil, fmt.Errorf("reading listing table: %w", err)
	}

	rows := make([]Record, df.Nrow())
	for i := range rows {
		rows[i] = Record{}
	}
	var columns []string
	for pos, name := range df.Names() {
		if blank[pos] || name == "" {
			dropped = append(dropped, name)
			continue
		}
		vals, ok := numericColumn(df, name)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		columns = append(columns, name)
		for i, v := range vals {
			if !IsMissing(v) {
				rows[i][name] = v
			}
		}
	}
	return NewDataset(columns, rows), dropped, nil
}

// ReadDatasetFile loads a listing table from path.
func ReadDatasetFile(path string) (*Dataset, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// formatCell renders v with the shortest representation that reads back to
// the same float. gota's float series would fix it at six decimals.
func formatCell(v float64) string {
	if IsMissing(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteDataset writes ds as CSV in column order. Missing cells are written
// as NaN.
func WriteDataset(w io.Writer, ds *Dataset) error {
	cols := ds.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("writing dataset: no columns")
	}
	ss := make([]series.Series, len(cols))
	for i, c := range cols {
		vals := ds.Column(c)
		cells := make([]string, len(vals))
		for j, v := range vals {
			cells[j] = formatCell(v)
		}
		ss[i] = series.New(cells, series.String, c)
	}
	return dataframe.New(ss...).WriteCSV(w)
}

// WriteDatasetFile writes ds to path.
func WriteDatasetFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteDataset(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
