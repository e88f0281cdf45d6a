package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ConfluenceClient implements WikiClient against the Confluence REST API.
type ConfluenceClient struct {
	baseURL  string
	username string
	token    string
	http     *http.Client
}

// NewConfluenceClient creates a client for the Confluence instance at
// baseURL, authenticated with username and API token.
func NewConfluenceClient(baseURL, username, token string) *ConfluenceClient {
	return &ConfluenceClient{
		baseURL:  baseURL,
		username: username,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type confluencePage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
		By     struct {
			DisplayName string `json:"displayName"`
		} `json:"by"`
	} `json:"version"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	Links struct {
		WebUI string `json:"webui"`
		Base  string `json:"base"`
	} `json:"_links"`
}

type confluenceSearchResult struct {
	Results []confluencePage `json:"results"`
	Size    int              `json:"size"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

const confluenceExpand = "body.storage,version,space,ancestors"

// SpacePages implements WikiClient, paginating through all current pages of
// the space up to limit.
func (c *ConfluenceClient) SpacePages(ctx context.Context, spaceKey string, limit int) ([]WikiPageData, error) {
	var pages []WikiPageData
	start := 0
	for len(pages) < limit {
		query := url.Values{
			"spaceKey": {spaceKey},
			"type":     {"page"},
			"status":   {"current"},
			"expand":   {confluenceExpand},
			"start":    {strconv.Itoa(start)},
			"limit":    {"50"},
		}
		var result confluenceSearchResult
		if err := c.get(ctx, "/rest/api/content?"+query.Encode(), &result); err != nil {
			return nil, err
		}
		for _, raw := range result.Results {
			pages = append(pages, c.toPageData(raw))
		}
		if result.Size < 50 {
			break
		}
		start += result.Size
	}
	if len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

// Page implements WikiClient.
func (c *ConfluenceClient) Page(ctx context.Context, pageID string) (*WikiPageData, error) {
	var raw confluencePage
	if err := c.get(ctx, "/rest/api/content/"+url.PathEscape(pageID)+"?expand="+confluenceExpand, &raw); err != nil {
		return nil, err
	}
	page := c.toPageData(raw)
	return &page, nil
}

func (c *ConfluenceClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("confluence request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("confluence returned %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode confluence response: %w", err)
	}
	return nil
}

func (c *ConfluenceClient) toPageData(raw confluencePage) WikiPageData {
	updated, _ := time.Parse(time.RFC3339, raw.Version.When)

	ancestors := make([]string, 0, len(raw.Ancestors))
	for _, a := range raw.Ancestors {
		ancestors = append(ancestors, a.Title)
	}

	webURL := ""
	if raw.Links.WebUI != "" {
		base := raw.Links.Base
		if base == "" {
			base = c.baseURL
		}
		webURL = base + raw.Links.WebUI
	}

	return WikiPageData{
		ID:        raw.ID,
		Title:     raw.Title,
		SpaceKey:  raw.Space.Key,
		HTMLBody:  raw.Body.Storage.Value,
		Version:   raw.Version.Number,
		UpdatedAt: updated,
		Author:    raw.Version.By.DisplayName,
		Ancestors: ancestors,
		WebURL:    webURL,
	}
}
