package loader

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// File names looked up inside a data directory
const (
	CompaniesFile = "companies.csv"
	StocksFile    = "stocks.csv"
)

//go:embed data/*.csv
var defaultData embed.FS

// CSVSource reads headerless companies.csv and stocks.csv from a filesystem
type CSVSource struct {
	name string
	fsys fs.FS
}

// NewCSVSource reads the two tables from dir
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{name: dir, fsys: os.DirFS(dir)}
}

// Embedded returns the bundled default tables
func Embedded() *CSVSource {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		// embed path is fixed at compile time
		panic(err)
	}
	return &CSVSource{name: "embedded", fsys: sub}
}

func (s *CSVSource) Name() string {
	return s.name
}

func (s *CSVSource) ReadTables() ([]Row, []Row, error) {
	companies, err := s.readFile(CompaniesFile)
	if err != nil {
		return nil, nil, err
	}
	stocks, err := s.readFile(StocksFile)
	if err != nil {
		return nil, nil, err
	}
	return companies, stocks, nil
}

func (s *CSVSource) readFile(name string) ([]Row, error) {
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}

// ReadCSV parses headerless comma separated rows. Blank lines are skipped and
// column counts are left to Load so a short row reports its own line.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}
