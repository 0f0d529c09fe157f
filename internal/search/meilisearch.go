package search

import (
	"encoding/json"
	"errors"
	"fmt"

	"reuse-atlas/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex creates the archive index and configures its attributes
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Creation is asynchronous; an existing index surfaces later as a failed
	// task, not here, so only transport errors are fatal
	var apiErr *meilisearch.Error
	if err != nil && !(errors.As(err, &apiErr) && apiErr.MeilisearchApiError.Code == "index_already_exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"city",
		"country",
		"originalFunction",
		"currentFunction",
		"typologyTags",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"city",
		"country",
		"isConversion",
		"typologyTags",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"activationScore",
		"createdAt",
	})
	return err
}

// IndexEntries adds or replaces archive documents
func (s *SearchClient) IndexEntries(entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(entries, "id")
	return err
}

// SearchEntries runs a typo-tolerant free-text query over the archive
func (s *SearchClient) SearchEntries(query string, limit int64) ([]models.ArchiveEntry, error) {
	searchRes, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]models.ArchiveEntry, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		entry, err := parseEntryFromHit(hit)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseEntryFromHit converts a search hit back into an ArchiveEntry via its
// JSON form; documents are indexed with the model's own JSON tags
func parseEntryFromHit(hit interface{}) (models.ArchiveEntry, error) {
	var entry models.ArchiveEntry
	hitJSON, err := json.Marshal(hit)
	if err != nil {
		return entry, fmt.Errorf("failed to encode search hit: %w", err)
	}
	if err := json.Unmarshal(hitJSON, &entry); err != nil {
		return entry, fmt.Errorf("failed to decode search hit: %w", err)
	}
	return entry, nil
}
