// internal/tickets/index.go
package tickets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
)

const defaultSearchSize = 50

// Index is the Elasticsearch ticket index used for free-text search.
type Index struct {
	client *elasticsearch.Client
	name   string
	size   int
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, indexName string, log logger.Logger) *Index {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Index{
		client: client,
		name:   indexName,
		size:   defaultSearchSize,
		logger: log.WithFields(map[string]interface{}{"component": "ticket-index", "index": indexName}),
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				ID string `json:"id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchTickets matches term against ticket text fields. Unless all is set,
// only the actor's own tickets are searched.
func (x *Index) SearchTickets(ctx context.Context, term, actorID string, all bool) ([]string, error) {
	if x.name == "" {
		return nil, apperrors.NewIndexNotFoundError(x.name)
	}

	body, err := json.Marshal(buildSearchQuery(term, actorID, all))
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("search_tickets", err)
	}

	size := x.size
	req := esapi.SearchRequest{
		Index: []string{x.name},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, x.client)
	if err != nil {
		x.logger.Error("search request failed", map[string]interface{}{"error": err})
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewIndexNotFoundError(x.name)
		}
		return nil, apperrors.NewSearchQueryFailedError("search_tickets", fmt.Errorf("search failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("search_tickets", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id := hit.Source.ID
		if id == "" {
			id = hit.ID
		}
		ids = append(ids, id)
	}

	x.logger.Debug("ticket search completed", map[string]interface{}{
		"totalHits": r.Hits.Total.Value,
		"returned":  len(ids),
		"all":       all,
	})
	return ids, nil
}

// IndexTicket upserts the ticket document under its id.
func (x *Index) IndexTicket(ctx context.Context, t *models.Ticket) error {
	if t == nil {
		return errors.New("ticket cannot be nil")
	}
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}

	res, err := x.client.Index(
		x.name,
		bytes.NewReader(body),
		x.client.Index.WithDocumentID(t.ID),
		x.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError("index_ticket", fmt.Errorf("index failed: %s", res.Status()))
	}
	return nil
}

func buildSearchQuery(term, actorID string, all bool) map[string]interface{} {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.TrimSpace(term),
				"fields": []string{"description^3", "emergencyType^2", "location", "id"},
				"type":   "best_fields",
			},
		},
	}

	boolQuery := map[string]interface{}{"must": must}
	if !all {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"requesterId": actorID},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}
}
