package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Table selectors for HTMLSource
const (
	CompaniesSelector = "table#companies"
	StocksSelector    = "table#stocks"
)

// HTMLSource reads both tables from one HTML document, for example a saved
// "Export Tables" page. Header rows (th only) are skipped.
type HTMLSource struct {
	name string
	open func() (io.ReadCloser, error)
}

// NewHTMLFile reads tables from an HTML file on disk
func NewHTMLFile(path string) *HTMLSource {
	return &HTMLSource{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewHTMLString reads tables from an in-memory document
func NewHTMLString(name, doc string) *HTMLSource {
	return &HTMLSource{
		name: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(doc)), nil },
	}
}

// Fetcher downloads a document body
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// fetchTimeout bounds one NewHTMLURL download including retries
const fetchTimeout = time.Minute

// NewHTMLURL downloads the document from url on every ReadTables
func NewHTMLURL(url string, client Fetcher) *HTMLSource {
	return &HTMLSource{
		name: url,
		open: func() (io.ReadCloser, error) {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			body, err := client.GetBody(ctx, url)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

func (s *HTMLSource) Name() string {
	return s.name
}

func (s *HTMLSource) ReadTables() ([]Row, []Row, error) {
	rc, err := s.open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	companies, err := tableRows(doc, CompaniesSelector)
	if err != nil {
		return nil, nil, err
	}
	stocks, err := tableRows(doc, StocksSelector)
	if err != nil {
		return nil, nil, err
	}
	return companies, stocks, nil
}

// tableRows returns the td cells of every body row, numbered from 1
func tableRows(doc *goquery.Document, selector string) ([]Row, error) {
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("table %q not found", selector)
	}

	var rows []Row
	line := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		line++
		fields := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			fields = append(fields, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, Row{Line: line, Fields: fields})
	})
	return rows, nil
}
