package augmentretrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	httpclient "asha-assistant/internal/common/http"
	"asha-assistant/internal/models"
)

// JSONSource reads an endpoint that returns either an array of items or an object
// with statistics and resources arrays. A "{query}" placeholder in the URL is
// replaced with the escaped query.
type JSONSource struct {
	name   string
	url    string
	client *httpclient.Client
}

func NewJSONSource(name, endpoint string, client *httpclient.Client) *JSONSource {
	return &JSONSource{name: name, url: endpoint, client: client}
}

func (s *JSONSource) Name() string { return s.name }

func (s *JSONSource) Fetch(ctx context.Context, query string) (*SourceResult, error) {
	endpoint := strings.ReplaceAll(s.url, "{query}", url.QueryEscape(query))

	var raw json.RawMessage
	if err := s.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	return decodeSourceBody(raw)
}

type sourceItem struct {
	Value  string `json:"value"`
	Source string `json:"source"`
	Text   string `json:"text"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Link   string `json:"link"`
}

func decodeSourceBody(raw json.RawMessage) (*SourceResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	if trimmed[0] == '[' {
		var items []sourceItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return itemsToResult(items), nil
	}

	var obj struct {
		Statistics []sourceItem `json:"statistics"`
		Resources  []sourceItem `json:"resources"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return itemsToResult(append(obj.Statistics, obj.Resources...)), nil
}

func itemsToResult(items []sourceItem) *SourceResult {
	out := &SourceResult{}
	for _, it := range items {
		if it.Value != "" {
			out.Statistics = append(out.Statistics, models.Statistic{Value: it.Value, Source: it.Source})
			continue
		}
		link := it.URL
		if link == "" {
			link = it.Link
		}
		text := it.Text
		if text == "" {
			text = it.Title
		}
		if link != "" {
			if text == "" {
				text = link
			}
			out.Resources = append(out.Resources, models.Resource{Text: text, URL: link})
		}
	}
	return out
}

// BLSSourceName is the attribution used for Bureau of Labor Statistics figures.
const BLSSourceName = "U.S. Bureau of Labor Statistics"

var blsSeriesLabels = map[string]string{
	"LNS11300000": "labor force participation",
	"LNS14000000": "unemployment",
	"LNS12000002": "women's employment-population",
}

// BLSSource reads one series from the BLS public time-series API.
type BLSSource struct {
	name   string
	url    string
	client *httpclient.Client
}

func NewBLSSource(name, seriesURL string, client *httpclient.Client) *BLSSource {
	return &BLSSource{name: name, url: seriesURL, client: client}
}

func (s *BLSSource) Name() string { return s.name }

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year       string `json:"year"`
				PeriodName string `json:"periodName"`
				Value      string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

func (s *BLSSource) Fetch(ctx context.Context, _ string) (*SourceResult, error) {
	var resp blsResponse
	if err := s.client.GetJSON(ctx, s.url, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "REQUEST_SUCCEEDED" {
		return nil, fmt.Errorf("bls request failed: %s %s", resp.Status, strings.Join(resp.Message, "; "))
	}
	if len(resp.Results.Series) == 0 || len(resp.Results.Series[0].Data) == 0 {
		return nil, fmt.Errorf("bls response has no data")
	}

	series := resp.Results.Series[0]
	latest := series.Data[0]
	seriesID := series.SeriesID
	if seriesID == "" {
		seriesID = path.Base(s.url)
	}
	label := seriesID
	if l, ok := blsSeriesLabels[seriesID]; ok {
		label = l
	}

	return &SourceResult{
		Statistics: []models.Statistic{{
			Value:  fmt.Sprintf("Current %s rate: %s%% (%s %s)", label, latest.Value, latest.PeriodName, latest.Year),
			Source: BLSSourceName,
		}},
	}, nil
}
