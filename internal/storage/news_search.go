package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"supplyguard/internal/common/database"
	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

// NewsSearch backs news-event reads with an Elasticsearch index when one
// is configured; postgres remains the source of truth for structured
// tables.
type NewsSearch struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewNewsSearch(client *database.ElasticsearchClient, index string, log logger.Logger) *NewsSearch {
	return &NewsSearch{es: client.Client, index: index, logger: log}
}

type esHit struct {
	Source models.NewsEvent `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

// Search runs a filtered, optionally full-text, query over the news
// index, newest first.
func (n *NewsSearch) Search(ctx context.Context, text string, f Filter) ([]models.NewsEvent, error) {
	must := []map[string]interface{}{}
	if text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title^2", "content"},
			},
		})
	}

	filter := []map[string]interface{}{}
	if f.Country != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"country": f.Country},
		})
	}
	if f.Category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category": f.Category},
		})
	}
	if !f.Since.IsZero() || !f.Until.IsZero() {
		rng := map[string]interface{}{}
		if !f.Since.IsZero() {
			rng["gte"] = f.Since
		}
		if !f.Until.IsZero() {
			rng["lte"] = f.Until
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"publishedDate": rng},
		})
	}

	size := f.Limit
	if size <= 0 {
		size = 100
	}

	query := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{
			{"publishedDate": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	res, err := n.es.Search(
		n.es.Search.WithContext(ctx),
		n.es.Search.WithIndex(n.index),
		n.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchFailedError(fmt.Errorf("search status %s", res.Status()))
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	out := make([]models.NewsEvent, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

// CompositeStore serves structured reads from postgres and news reads
// from Elasticsearch when a news index is attached.
type CompositeStore struct {
	*PostgresStore
	news *NewsSearch
}

func NewCompositeStore(pg *PostgresStore, news *NewsSearch) *CompositeStore {
	return &CompositeStore{PostgresStore: pg, news: news}
}

func (c *CompositeStore) NewsEvents(ctx context.Context, f Filter) ([]models.NewsEvent, error) {
	if c.news == nil {
		return c.PostgresStore.NewsEvents(ctx, f)
	}
	events, err := c.news.Search(ctx, "", f)
	if err != nil {
		// Index trouble should not blind the engine while postgres
		// still has the rows.
		c.PostgresStore.logger.Warn("news search failed, falling back to postgres", map[string]interface{}{
			"error": err.Error(),
		})
		return c.PostgresStore.NewsEvents(ctx, f)
	}
	return events, nil
}
