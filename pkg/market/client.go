package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultBaseURL = "https://www.olx.com.br"
	// MaxListings is how many ads a search keeps.
	MaxListings = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxPageBytes = 8 << 20
)

var (
	ErrInvalidQuery = errors.New("market: city and state are required")
	// ErrUpstream covers transport failures and non-2xx answers.
	ErrUpstream = errors.New("market: upstream request failed")
	// ErrPayloadMissing means the page had no embedded result set.
	ErrPayloadMissing = errors.New("market: embedded listing data not found")
)

var ufPattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Listing is one classifieds ad.
type Listing struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Client fetches search result pages from the classifieds site.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client; an empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns up to MaxListings ads for the query. An empty slice is a
// valid answer.
func (c *Client) Search(ctx context.Context, q Query) ([]Listing, error) {
	if strings.TrimSpace(q.City) == "" || !ufPattern.MatchString(strings.TrimSpace(q.State)) {
		return nil, ErrInvalidQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(c.baseURL, q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %s", ErrUpstream, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	return parseListings(body, c.baseURL)
}

type nextData struct {
	Props struct {
		PageProps struct {
			Ads []adPayload `json:"ads"`
		} `json:"pageProps"`
	} `json:"props"`
}

type adPayload struct {
	Subject    string `json:"subject"`
	Title      string `json:"title"`
	PriceValue string `json:"priceValue"`
	Price      any    `json:"price"`
	URL        string `json:"url"`
	Location   string `json:"location"`
	Properties []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	} `json:"properties"`
}

func parseListings(page []byte, baseURL string) ([]Listing, error) {
	raw, err := findNextData(page)
	if err != nil {
		return nil, err
	}
	var data nextData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrPayloadMissing, err)
	}
	listings := make([]Listing, 0, MaxListings)
	for _, ad := range data.Props.PageProps.Ads {
		if len(listings) == MaxListings {
			break
		}
		title := strings.TrimSpace(firstString(ad.Subject, ad.Title))
		link := strings.TrimSpace(ad.URL)
		// banner slots carry neither
		if title == "" || link == "" {
			continue
		}
		if strings.HasPrefix(link, "/") {
			link = baseURL + link
		}
		listings = append(listings, Listing{
			Title:       title,
			Price:       adPrice(ad),
			URL:         link,
			Description: adDescription(ad),
		})
	}
	return listings, nil
}

func findNextData(page []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrPayloadMissing, err)
	}
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "id" && attr.Val == "__NEXT_DATA__" {
					found = n
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	if found == nil || found.FirstChild == nil {
		return nil, ErrPayloadMissing
	}
	text := strings.TrimSpace(found.FirstChild.Data)
	if text == "" {
		return nil, ErrPayloadMissing
	}
	return []byte(text), nil
}

func adPrice(ad adPayload) string {
	if p := strings.TrimSpace(ad.PriceValue); p != "" {
		return p
	}
	switch v := ad.Price.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("R$ %.0f", v)
	}
	return ""
}

func adDescription(ad adPayload) string {
	parts := make([]string, 0, len(ad.Properties)+1)
	if loc := strings.TrimSpace(ad.Location); loc != "" {
		parts = append(parts, loc)
	}
	for _, p := range ad.Properties {
		if p.Label == "" || p.Value == "" {
			continue
		}
		parts = append(parts, p.Label+": "+p.Value)
	}
	return strings.Join(parts, " | ")
}

func firstString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
