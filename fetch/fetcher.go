// Package fetch retrieves one random work from the Aozora Bunko archive and
// turns its XHTML page into a cleaned plain-text Document.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/KukimiCan/aozora-api/catalog"
)

var log = logging.Logger("fetch")

// Document is one work ready to serve: title, author, cleaned body text and
// the resolved address it was retrieved from. A Document is created by
// FetchOne and never modified afterward.
type Document struct {
	Title  string
	Author string
	Text   string
	URL    string
}

// Fetcher retrieves documents for random catalog entries. Each FetchOne call
// makes at most one outbound request; a failed entry is not retried within
// the call, the next call simply draws again.
type Fetcher struct {
	catalog   *catalog.Catalog
	base      *url.URL
	client    *http.Client
	userAgent string
}

// New creates a Fetcher drawing entries from cat. A nil catalog is allowed;
// every FetchOne then reports ErrNoCatalog.
func New(cat *catalog.Catalog, options ...Option) (*Fetcher, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(opts.baseURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must have http or https scheme: %s", opts.baseURL)
	}

	client := opts.client
	if client == nil {
		// Single attempt per call. The retryable client is used for its
		// connection handling, not for retries; replenishment provides the
		// retry-by-next-iteration behavior.
		rclient := &retryablehttp.Client{
			HTTPClient: &http.Client{Timeout: opts.timeout},
			RetryMax:   0,
			CheckRetry: retryablehttp.DefaultRetryPolicy,
			Backoff:    retryablehttp.DefaultBackoff,
		}
		client = rclient.StandardClient()
	}

	return &Fetcher{
		catalog:   cat,
		base:      base,
		client:    client,
		userAgent: opts.userAgent,
	}, nil
}

// FetchOne retrieves and cleans one randomly chosen work. It returns
// ErrNoCatalog when no catalog is loaded, ErrSkipped when the drawn entry is
// copyrighted, and a *Error wrapping the cause for any network or parse
// failure, ErrNoContent included.
func (f *Fetcher) FetchOne(ctx context.Context) (Document, error) {
	entry, ok := f.catalog.Random()
	if !ok {
		return Document{}, ErrNoCatalog
	}
	if entry.Copyrighted {
		return Document{}, ErrSkipped
	}

	docURL := f.resolve(entry.CardURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return Document{}, &Error{URL: docURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, &Error{URL: docURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, &Error{URL: docURL, Err: fmt.Errorf("unexpected response: %s", resp.Status)}
	}

	// Archive pages are Shift-JIS no matter what the response headers claim.
	body := transform.NewReader(resp.Body, japanese.ShiftJIS.NewDecoder())
	page, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Document{}, &Error{URL: docURL, Err: err}
	}

	main := page.Find("div.main_text").First()
	if main.Length() == 0 {
		return Document{}, &Error{URL: docURL, Err: ErrNoContent}
	}

	// Drop ruby pronunciation annotations, then preserve paragraph breaks
	// before extracting plain text.
	main.Find("rt, rp").Remove()
	main.Find("br").ReplaceWithHtml("\n")

	author := strings.TrimSpace(entry.AuthorFamilyName + " " + entry.AuthorGivenName)

	log.Debugw("Fetched document", "title", entry.Title, "url", docURL)
	return Document{
		Title:  entry.Title,
		Author: author,
		Text:   cleanText(main.Text()),
		URL:    docURL,
	}, nil
}

// resolve makes an absolute document address from a catalog locator. Leading
// parent-directory markers in the locator are meaningless relative to the
// archive root and are stripped.
func (f *Fetcher) resolve(locator string) string {
	locator = strings.ReplaceAll(locator, "../", "")
	ref, err := url.Parse(locator)
	if err != nil {
		// Let the request fail with the raw locator in the error.
		return locator
	}
	return f.base.ResolveReference(ref).String()
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// cleanText normalizes extracted page text: every line is trimmed, runs of
// blank lines collapse to a single blank line, and outer whitespace is
// removed.
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate returns the first n characters of text followed by an ellipsis
// when text is longer than n characters, and text unchanged otherwise.
// Lengths are counted in runes so multibyte text is never cut mid-character.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
