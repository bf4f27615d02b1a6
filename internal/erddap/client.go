// Package erddap fetches tabledap datasets from an ERDDAP server.
package erddap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dwcarchive/internal/table"
)

const defaultTimeout = 60 * time.Second

// Client talks to one ERDDAP server.
type Client struct {
	server string
	http   *http.Client
}

// NewClient returns a client for the given server base URL, for example
// "https://rowlrs-data.marine.rutgers.edu/erddap". A nil httpClient gets a
// default with a request timeout.
func NewClient(server string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{server: strings.TrimRight(server, "/"), http: httpClient}
}

// FetchDataset downloads {server}/tabledap/{id}.csv and parses it into a
// table. Constraints are appended verbatim as the query string, joined by
// "&" (ERDDAP constraint syntax, e.g. "time>=2023-01-01").
//
// ERDDAP CSV carries two header rows, column names then units; the units row
// is discarded. Empty cells and the literal "NaN" become missing values.
func (c *Client) FetchDataset(ctx context.Context, id string, constraints ...string) (*table.Table, error) {
	url := fmt.Sprintf("%s/tabledap/%s.csv", c.server, id)
	if len(constraints) > 0 {
		url += "?" + strings.Join(constraints, "&")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", id, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch dataset %s: status %d: %s", id, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	tbl, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", id, err)
	}
	return tbl, nil
}

func parseCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Units row.
	if _, err := cr.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read units row: %w", err)
	}

	tbl := table.New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row has %d cells, header has %d", len(record), len(header))
		}
		cells := make(map[string]table.Value, len(header))
		for i, col := range header {
			cells[col] = cellValue(record[i])
		}
		if err := tbl.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func cellValue(raw string) table.Value {
	if raw == "" || raw == "NaN" {
		return table.Missing()
	}
	return table.String(raw)
}
