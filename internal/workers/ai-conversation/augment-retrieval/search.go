package augmentretrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"asha-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// SearchSource queries an Elasticsearch index of curated career resources.
//
// Documents look like {"title", "url", "description", "tags", "statistic", "source"};
// a document with a statistic contributes it along with its resource link.
type SearchSource struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewSearchSource(client *elasticsearch.Client, index string, size int) *SearchSource {
	if size <= 0 {
		size = 5
	}
	return &SearchSource{client: client, index: index, size: size}
}

func (s *SearchSource) Name() string { return "search:" + s.index }

func (s *SearchSource) buildQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "description^2", "tags"},
				"type":   "best_fields",
			},
		},
	}
}

func (s *SearchSource) Fetch(ctx context.Context, query string) (*SourceResult, error) {
	body, _ := json.Marshal(s.buildQuery(query))
	size := s.size

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Title     string `json:"title"`
					URL       string `json:"url"`
					Statistic string `json:"statistic"`
					Source    string `json:"source"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &SourceResult{}
	for _, hit := range r.Hits.Hits {
		doc := hit.Source
		if doc.Statistic != "" {
			out.Statistics = append(out.Statistics, models.Statistic{Value: doc.Statistic, Source: doc.Source})
		}
		if doc.URL != "" {
			text := doc.Title
			if text == "" {
				text = doc.URL
			}
			out.Resources = append(out.Resources, models.Resource{Text: text, URL: doc.URL})
		}
	}
	return out, nil
}
