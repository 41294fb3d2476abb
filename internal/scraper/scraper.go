package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/clubot/internal/agenda"
)

const (
	DefaultBaseURL = "https://www.clubalpinlyon.fr/agenda"
	DefaultQuery   = "month={m}&year={Y}"
	UserAgent      = "clubot/1.0 (github.com/pfrederiksen/clubot)"
	Timeout        = 30 * time.Second
)

var (
	// ErrFetchFailure is returned when the agenda page answers with a non-success status
	ErrFetchFailure = errors.New("fetch failure")
	// ErrAgendaNotFound is returned when the page has no agenda table
	ErrAgendaNotFound = errors.New("agenda table not found")
)

// Scraper fetches and parses agenda pages
type Scraper struct {
	client    *http.Client
	baseURL   string
	query     string
	userAgent string
}

// New creates a Scraper for the given base URL and query template.
// Empty values fall back to the defaults.
func New(baseURL, query, userAgent string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if query == "" {
		query = DefaultQuery
	}
	if userAgent == "" {
		userAgent = UserAgent
	}

	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		query:     query,
		userAgent: userAgent,
	}
}

// URL returns the agenda page address of an activity for one month
func (s *Scraper) URL(activity string, year int, month time.Month) string {
	query := strings.NewReplacer(
		"{m}", strconv.Itoa(int(month)),
		"{Y}", strconv.Itoa(year),
	).Replace(s.query)

	return fmt.Sprintf("%s/%s.html?%s", s.baseURL, activity, query)
}

// FetchRows fetches one month of an activity's agenda and returns its rows
func (s *Scraper) FetchRows(ctx context.Context, activity string, year int, month time.Month) ([]agenda.Row, error) {
	url := s.URL(activity, year, month)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailure, url, resp.StatusCode)
	}

	rows, err := parseRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	return rows, nil
}

// parseRows extracts the agenda table rows from an HTML page.
// Agenda rows are not closed in the source markup; the HTML5 parser
// behind goquery closes them implicitly.
func parseRows(r io.Reader) ([]agenda.Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("#main #left1 #agenda").First()
	if table.Length() == 0 {
		table = doc.Find("#agenda").First()
	}
	if table.Length() == 0 {
		return nil, ErrAgendaNotFound
	}

	rows := make([]agenda.Row, 0)

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cell := tr.Find(".agenda-gauche").First()
		if cell.Length() == 0 {
			return
		}

		// Date labels are history keys and must match what earlier
		// versions stored, so they are kept exactly as scraped.
		row := agenda.Row{
			Date:   cell.Text(),
			Titles: make([]string, 0),
		}

		tr.Find("h2").Each(func(j int, h *goquery.Selection) {
			if title := collapseSpaces(h.Text()); title != "" {
				row.Titles = append(row.Titles, title)
			}
		})

		rows = append(rows, row)
	})

	return rows, nil
}

// collapseSpaces trims s and joins its words with single spaces
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
