// Package export writes and reads redemption URL bundles: gzip-compressed
// CSV files with one row per key. Bundles contain private keys inside the
// URLs and are written with owner-only permissions.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klauspost/compress/gzip"
)

var header = []string{"index", "address", "url"}

// ErrMalformedBundle is returned when a bundle cannot be decoded.
var ErrMalformedBundle = errors.New("export: malformed bundle")

// Row is one redemption in a bundle.
type Row struct {
	Index   int
	Address common.Address
	URL     string
}

// Rows pairs addresses with their redemption URLs by position.
func Rows(addresses []common.Address, urls []string) ([]Row, error) {
	if len(addresses) != len(urls) {
		return nil, fmt.Errorf("export: %d addresses but %d urls", len(addresses), len(urls))
	}
	rows := make([]Row, len(urls))
	for i := range urls {
		rows[i] = Row{Index: i, Address: addresses[i], URL: urls[i]}
	}
	return rows, nil
}

// Write encodes rows as gzip CSV.
func Write(w io.Writer, rows []Row) error {
	zw := gzip.NewWriter(w)
	cw := csv.NewWriter(zw)

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.Index), r.Address.Hex(), r.URL}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return zw.Close()
}

// Read decodes a gzip CSV bundle.
func Read(r io.Reader) ([]Row, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}
	defer zr.Close()

	cr := csv.NewReader(zr)
	cr.FieldsPerRecord = len(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}
	if len(records) == 0 || records[0][0] != header[0] {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedBundle)
	}

	rows := make([]Row, 0, len(records)-1)
	for line, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad index %q", ErrMalformedBundle, line+2, rec[0])
		}
		if !common.IsHexAddress(rec[1]) {
			return nil, fmt.Errorf("%w: line %d: bad address %q", ErrMalformedBundle, line+2, rec[1])
		}
		rows = append(rows, Row{Index: idx, Address: common.HexToAddress(rec[1]), URL: rec[2]})
	}
	return rows, nil
}

// WriteFile writes a bundle to path with mode 0600, replacing any existing file.
func WriteFile(path string, rows []Row) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, rows)
}

// ReadFile reads a bundle from path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	return Read(f)
}
