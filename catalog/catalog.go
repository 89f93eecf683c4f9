// Package catalog loads the Aozora Bunko work index into typed, immutable
// records that the fetcher draws from at random.
//
// The index is the "list_person_all_extended" CSV published by Aozora Bunko.
// It is cp932-encoded and carries one row per work, including the work title,
// the author name, a copyright flag, and the location of the work's XHTML
// file. Rows without a file location are dropped at load time, and malformed
// rows are reported as load-time errors instead of surfacing later as fetch
// failures.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/jszwec/csvutil"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var log = logging.Logger("catalog")

// copyrightRestricted is the flag column value marking a work that is still
// under copyright and must not be served.
const copyrightRestricted = "あり"

// Entry describes one work in the catalog. Entries are created at load time
// and never modified afterward.
type Entry struct {
	// Title is the work title.
	Title string
	// AuthorFamilyName and AuthorGivenName are the author name components.
	AuthorFamilyName string
	AuthorGivenName  string
	// Copyrighted is true when the work is excluded by the copyright flag.
	Copyrighted bool
	// CardURL locates the work's XHTML file, relative to the archive base
	// address or absolute.
	CardURL string
}

// row maps the CSV columns used from the extended person list. The index has
// many more columns; only these are decoded.
type row struct {
	Title      string `csv:"作品名"`
	Copyright  string `csv:"作品著作権フラグ"`
	FamilyName string `csv:"姓"`
	GivenName  string `csv:"名"`
	FileURL    string `csv:"XHTML/HTMLファイルURL"`
}

var requiredColumns = []string{"作品名", "作品著作権フラグ", "姓", "名", "XHTML/HTMLファイルURL"}

// Catalog is a read-only table of work entries. A nil *Catalog is valid and
// behaves as an empty catalog, so callers can treat a missing dataset as a
// degraded state instead of a fatal one.
type Catalog struct {
	entries []Entry
}

// New creates a catalog directly from entries. Entries without a locator are
// dropped, same as when loading from CSV.
func New(entries ...Entry) *Catalog {
	kept := make([]Entry, 0, len(entries))
	for _, ent := range entries {
		if strings.TrimSpace(ent.CardURL) == "" {
			continue
		}
		kept = append(kept, ent)
	}
	return &Catalog{entries: kept}
}

// Load reads the catalog CSV at path. The file is decoded as cp932. An error
// is returned if the file cannot be opened or the header is missing required
// columns. Malformed rows are skipped and logged in aggregate.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog: %w", err)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads the catalog CSV from r. See Load.
func LoadReader(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog header: %w", err)
	}

	header := dec.Header()
	for _, col := range requiredColumns {
		if !contains(header, col) {
			return nil, fmt.Errorf("catalog missing column %q", col)
		}
	}

	var entries []Entry
	var rowErrs error
	for line := 2; ; line++ {
		var rec row
		err = dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrs = multierror.Append(rowErrs, fmt.Errorf("row %d: %w", line, err))
				continue
			}
			// Not a per-row parse problem, so the rest of the stream is
			// not readable either.
			return nil, fmt.Errorf("cannot read catalog: %w", err)
		}
		if strings.TrimSpace(rec.FileURL) == "" {
			continue
		}
		entries = append(entries, Entry{
			Title:            rec.Title,
			AuthorFamilyName: rec.FamilyName,
			AuthorGivenName:  rec.GivenName,
			Copyrighted:      rec.Copyright == copyrightRestricted,
			CardURL:          rec.FileURL,
		})
	}

	if rowErrs != nil {
		merr := rowErrs.(*multierror.Error)
		if len(entries) == 0 {
			return nil, fmt.Errorf("no usable catalog rows: %w", rowErrs)
		}
		log.Errorw("Skipped malformed catalog rows", "count", len(merr.Errors), "err", rowErrs)
	}

	log.Infow("Catalog loaded", "works", len(entries))
	return &Catalog{entries: entries}, nil
}

// Random returns one entry chosen uniformly at random, or false if the
// catalog is nil or empty. Safe for concurrent use.
func (c *Catalog) Random() (Entry, bool) {
	if c == nil || len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[rand.Intn(len(c.entries))], true
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
