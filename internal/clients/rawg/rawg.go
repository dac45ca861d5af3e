package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client talks to the RAWG games database. All calls carry a bounded
// timeout; callers must not hold a DB transaction open across them.
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type SearchResult struct {
	RawgID      int64  `json:"rawg_id"`
	Title       string `json:"title"`
	ReleaseYear *int   `json:"release_year"`
	ImageURL    string `json:"image_url"`
}

type GameDetail struct {
	Title       string
	ReleaseYear *int
	ImageURL    string
	Description string
	Genres      []string
}

type searchResponse struct {
	Results []struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		Released        string `json:"released"`
		BackgroundImage string `json:"background_image"`
	} `json:"results"`
}

type detailResponse struct {
	Name            string `json:"name"`
	Released        string `json:"released"`
	BackgroundImage string `json:"background_image"`
	DescriptionRaw  string `json:"description_raw"`
	Description     string `json:"description"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	const op = "clients.rawg.Search"

	endpoint := fmt.Sprintf("%s/games?search=%s&key=%s&page_size=10",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{
			RawgID:      r.ID,
			Title:       r.Name,
			ReleaseYear: yearOf(r.Released),
			ImageURL:    r.BackgroundImage,
		})
	}

	return results, nil
}

func (c *Client) FetchDetail(ctx context.Context, rawgID int64) (*GameDetail, error) {
	const op = "clients.rawg.FetchDetail"

	endpoint := fmt.Sprintf("%s/games/%d?key=%s", c.baseURL, rawgID, url.QueryEscape(c.apiKey))

	var resp detailResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	description := resp.DescriptionRaw
	if description == "" {
		description = StripHTML(resp.Description)
	}

	genres := make([]string, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		if g.Name != "" {
			genres = append(genres, g.Name)
		}
	}

	return &GameDetail{
		Title:       resp.Name,
		ReleaseYear: yearOf(resp.Released),
		ImageURL:    resp.BackgroundImage,
		Description: description,
		Genres:      genres,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// StripHTML flattens markup in RAWG descriptions to plain text.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	return strings.TrimSpace(doc.Text())
}

// yearOf extracts the year from a RAWG release date ("2016-08-19").
func yearOf(released string) *int {
	if len(released) < 4 {
		return nil
	}
	year, err := strconv.Atoi(released[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}
