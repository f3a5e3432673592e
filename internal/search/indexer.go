// Package search indexes finalized conversations into Elasticsearch so the
// prose-only projection can back search and previews. Indexing is an
// enhancement: failures are logged and never surface to the user.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"ziyara-stream/internal/common/database"
	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"
)

// Document is what gets indexed per conversation: only the lossy text
// projection, never widget payloads.
type Document struct {
	ContextAction string    `json:"contextAction"`
	TextOnly      string    `json:"textOnly"`
	MessageCount  int       `json:"messageCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Indexer writes conversation documents into a single index, one document
// per context key (indexing twice overwrites).
type Indexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search-indexer"}),
	}
}

// Index upserts the conversation document keyed by its context action.
func (i *Indexer) Index(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return cmerrors.NewSearchIndexError(doc.ContextAction, err)
	}

	if err := i.es.IndexDocument(ctx, i.index, doc.ContextAction, bytes.NewReader(payload)); err != nil {
		i.logger.WithError(err).Warn("conversation indexing failed",
			map[string]interface{}{"contextAction": doc.ContextAction})
		return cmerrors.NewSearchIndexError(doc.ContextAction, err)
	}
	return nil
}
