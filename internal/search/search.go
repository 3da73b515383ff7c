package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mlevchenko/studyhub/internal/models"
)

const SubjectIndex = "subjects"

// NewClient connects to elasticsearch and verifies the cluster responds
// before handing the client out.
func NewClient(url, username, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return client, nil
}

func IndexSubject(ctx context.Context, es *elasticsearch.Client, index string, s *models.Subject) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("index subject: encode: %w", err)
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithDocumentID(strconv.FormatUint(uint64(s.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index subject: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index subject: %s", res.Status())
	}
	return nil
}

func DeleteSubject(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete subject from index: %w", err)
	}
	defer res.Body.Close()
	// 404 just means the write never made it into the index.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete subject from index: %s", res.Status())
	}
	return nil
}

// Subjects runs a fuzzy multi_match over name and description, name
// weighted double.
func Subjects(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Subject, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search subjects: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search subjects: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search subjects: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Subject `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search subjects: decode response: %w", err)
	}

	subjects := make([]models.Subject, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		subjects[i] = hit.Source
	}
	return r.Hits.Total.Value, subjects, nil
}
