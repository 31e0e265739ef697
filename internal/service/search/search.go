package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/trackboard/trackboard/internal/models"
)

// IssueDoc is the slice of an issue that gets indexed for search.
type IssueDoc struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ListID      uint   `json:"list_id"`
}

func docFromIssue(issue *models.Issue) IssueDoc {
	return IssueDoc{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		ListID:      issue.ListID,
	}
}

// IndexIssue upserts the issue document. Called after create and update.
func IndexIssue(ctx context.Context, es *elasticsearch.Client, index string, issue *models.Issue) error {
	doc := docFromIssue(issue)
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index issue: %w", err)
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(issue.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index issue: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index issue: %s", res.Status())
	}
	return nil
}

// DeleteIssue removes the issue document; a missing document is fine.
func DeleteIssue(ctx context.Context, es *elasticsearch.Client, index string, issueID uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(issueID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete issue doc: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete issue doc: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy multi-match over title and description.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []IssueDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source IssueDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]IssueDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
