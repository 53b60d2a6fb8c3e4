package httpboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
)

type itemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// postingItem is the board's wire shape for one posting. Adapter-internal;
// nothing outside this package sees it.
type postingItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Remote   bool   `json:"remote"`
	Salary   *struct {
		From     int    `json:"from"`
		To       int    `json:"to"`
		Currency string `json:"currency"`
	} `json:"salary"`
	Description string `json:"description"`
	Form        string `json:"form"`
	PostedAt    string `json:"posted_at"`
}

func (i *postingItem) toPosting(platformID string) *job.Posting {
	posting := &job.Posting{
		PlatformID:  platformID,
		ExternalID:  i.ID,
		Title:       i.Title,
		Company:     i.Company,
		Location:    i.Location,
		Remote:      i.Remote,
		Description: i.Description,
		Form:        i.Form,
	}

	if i.Salary != nil {
		posting.Salary = &job.Salary{
			From:     i.Salary.From,
			To:       i.Salary.To,
			Currency: i.Salary.Currency,
		}
	}

	if ts, err := time.Parse(time.RFC3339, i.PostedAt); err == nil {
		posting.PostedAt = ts
	}

	return posting
}

// SearchJobs starts a paginated search. Pages are fetched lazily as the
// cursor advances; the cursor itself owns no client state.
func (c *Client) SearchJobs(_ context.Context, filters *platform.SearchFilters) (platform.SearchCursor, error) {
	if filters == nil {
		filters = &platform.SearchFilters{}
	}

	q := url.Values{}
	if filters.Text != "" {
		q.Set("text", filters.Text)
	}
	for _, location := range filters.Locations {
		q.Add("location", location)
	}
	if filters.Remote {
		q.Set("remote", "true")
	}
	if filters.PostedWithinDays > 0 {
		q.Set("period", strconv.Itoa(filters.PostedWithinDays))
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	q.Set("per_page", strconv.Itoa(perPage))

	return &searchCursor{client: c, query: q}, nil
}

type searchCursor struct {
	client *Client
	query  url.Values

	buffer  []*job.Posting
	page    int
	pages   int
	fetched bool
}

func (s *searchCursor) Next(ctx context.Context) (*job.Posting, error) {
	for len(s.buffer) == 0 {
		if s.fetched && s.page >= s.pages {
			return nil, platform.ErrEndOfSearch
		}
		if err := s.fetchPage(ctx); err != nil {
			return nil, err
		}
	}

	posting := s.buffer[0]
	s.buffer = s.buffer[1:]

	return posting, nil
}

func (s *searchCursor) fetchPage(ctx context.Context) error {
	q := url.Values{}
	for key, values := range s.query {
		q[key] = values
	}
	q.Set("page", strconv.Itoa(s.page))

	resp, err := s.client.get(ctx, s.client.baseURL+jobsPath, q)
	if err != nil {
		return platform.Transient("search jobs", err)
	}
	defer resp.Body.Close()

	if err := s.client.checkStatus("search jobs", resp); err != nil {
		return err
	}

	body, err := decodeBody(resp)
	if err != nil {
		return platform.Transient("search jobs", err)
	}

	var response itemResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return platform.Permanent("search jobs", fmt.Errorf("decode search response: %w", err))
	}

	s.client.logger.Debug("got search page",
		zap.Int("page", response.Page),
		zap.Int("pages", response.Pages),
		zap.Int("found", response.Found),
	)

	postings, err := decodeItems(response.Items, s.client.id)
	if err != nil {
		return platform.Permanent("search jobs", err)
	}

	s.buffer = postings
	s.page = response.Page + 1
	s.pages = response.Pages
	s.fetched = true

	return nil
}

func decodeItems(items []any, platformID string) ([]*job.Posting, error) {
	var decoded []*postingItem

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &decoded,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build item decoder: %w", err)
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode search items: %w", err)
	}

	postings := make([]*job.Posting, 0, len(decoded))
	for _, item := range decoded {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		postings = append(postings, item.toPosting(platformID))
	}

	return postings, nil
}
