// internal/workers/embedding/backfill-embeddings/handler.go
package backfillembeddings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "embedding-backfill/internal/common/errors"
	"embedding-backfill/internal/common/logger"
	"embedding-backfill/internal/common/metrics"
	"embedding-backfill/internal/embedding"
	"embedding-backfill/internal/models"

	"github.com/pgvector/pgvector-go"
)

const (
	TaskType = "backfill-embeddings"

	selectPropertiesSQL = `SELECT id, name, city, locality, bhk, summary, amenities, embedding FROM properties`

	// The embedding IS NULL guard keeps a vector written by a concurrent run intact.
	updateEmbeddingSQL = `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2 AND embedding IS NULL`
)

type Handler struct {
	config   *Config
	db       *sql.DB
	embedder embedding.Embedder
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, embedder embedding.Embedder, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		config:   config,
		db:       db,
		embedder: embedder,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute runs one backfill pass: read every property, embed the ones without
// a vector and write them back, committing every CommitInterval updates.
// On error the in-flight batch is rolled back; earlier batches stay committed.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	output := &Output{}

	properties, err := h.fetchProperties(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if p.HasEmbedding() {
			continue
		}
		pending = append(pending, p)
	}

	output.Total = len(properties)
	output.Pending = len(pending)
	output.AlreadyEmbedded = output.Total - output.Pending

	metrics.PropertiesObserved.WithLabelValues("embedded").Set(float64(output.AlreadyEmbedded))
	metrics.PropertiesObserved.WithLabelValues("pending").Set(float64(output.Pending))

	h.logger.Info("loaded properties", map[string]interface{}{
		"total":           output.Total,
		"alreadyEmbedded": output.AlreadyEmbedded,
		"pending":         output.Pending,
		"model":           h.embedder.Model(),
	})

	if output.Pending == 0 {
		h.logger.Info("all properties already have embeddings", nil)
		output.Duration = time.Since(start)
		return output, nil
	}

	err = h.backfill(ctx, pending, output)
	output.Duration = time.Since(start)
	if err != nil {
		h.logger.Error("backfill aborted", map[string]interface{}{
			"updated": output.Updated,
			"commits": output.Commits,
			"error":   err,
		})
		return output, err
	}

	h.logger.Info("backfill completed", map[string]interface{}{
		"updated":  output.Updated,
		"skipped":  output.Skipped,
		"commits":  output.Commits,
		"duration": output.Duration.String(),
	})

	return output, nil
}

func (h *Handler) fetchProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := h.db.QueryContext(ctx, selectPropertiesSQL)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.City,
			&p.Locality,
			&p.BHK,
			&p.Summary,
			&p.Amenities,
			&p.Embedding,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(fmt.Errorf("scan property: %w", err))
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}

	return properties, nil
}

func (h *Handler) backfill(ctx context.Context, pending []models.Property, output *Output) error {
	interval := h.config.commitInterval()
	var tx *sql.Tx

	defer func() {
		if tx != nil {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				h.logger.Warn("rollback failed", map[string]interface{}{"error": err})
			}
		}
	}()

	for _, p := range pending {
		vec, err := h.embedder.Embed(ctx, BuildText(p))
		if err != nil {
			return apperrors.NewEmbeddingFailedError(p.ID, err)
		}
		if len(vec) != h.config.Dimension {
			return apperrors.NewEmbeddingDimensionError(p.ID, h.config.Dimension, len(vec))
		}

		if tx == nil {
			tx, err = h.db.BeginTx(ctx, nil)
			if err != nil {
				return apperrors.NewDatabaseUpdateFailedError(p.ID, fmt.Errorf("begin transaction: %w", err))
			}
		}

		res, err := tx.ExecContext(ctx, updateEmbeddingSQL, pgvector.NewVector(vec), p.ID)
		if err != nil {
			return apperrors.NewDatabaseUpdateFailedError(p.ID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return apperrors.NewDatabaseUpdateFailedError(p.ID, err)
		}
		if affected == 0 {
			output.Skipped++
			metrics.PropertiesSkipped.Inc()
			h.logger.Warn("property gained an embedding during the run, skipped", map[string]interface{}{
				"propertyId": p.ID,
			})
			continue
		}

		output.Updated++
		metrics.PropertiesUpdated.Inc()

		if output.Updated%interval == 0 {
			if err := h.commit(tx, output); err != nil {
				tx = nil
				return err
			}
			tx = nil
		}
	}

	if tx != nil {
		err := h.commit(tx, output)
		tx = nil
		if err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) commit(tx *sql.Tx, output *Output) error {
	if err := tx.Commit(); err != nil {
		return apperrors.NewTransactionCommitFailedError(err)
	}
	output.Commits++
	metrics.BatchCommits.Inc()

	h.logger.Info("committed batch", map[string]interface{}{
		"updated": output.Updated,
		"pending": output.Pending,
	})
	return nil
}
