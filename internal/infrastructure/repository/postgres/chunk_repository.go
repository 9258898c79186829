package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// InsertBatch writes every chunk of one document in a single transaction.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (id, project_id, content, source_type, chunk_index, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metaJSON, err := encodeChunkMetadata(chunk.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.ProjectID, chunk.Content, chunk.SourceType, chunk.ChunkIndex, metaJSON, chunk.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

// ListByProject returns candidates in insertion order so that score ties
// resolve the same way on every query.
func (r *ChunkRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		return []domain.Chunk{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, project_id, content, source_type, chunk_index, metadata, created_at
FROM chunks
WHERE project_id = $1
ORDER BY created_at, chunk_index, id
LIMIT $2
`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list project chunks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Chunk, 0, limit)
	for rows.Next() {
		var chunk domain.Chunk
		var metaRaw []byte
		if err := rows.Scan(
			&chunk.ID, &chunk.ProjectID, &chunk.Content, &chunk.SourceType,
			&chunk.ChunkIndex, &metaRaw, &chunk.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		meta, err := decodeChunkMetadata(metaRaw)
		if err != nil {
			return nil, err
		}
		chunk.Metadata = meta
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) DeleteBySource(ctx context.Context, projectID, source string) (int, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM chunks
WHERE project_id = $1 AND metadata->>'source' = $2
`, projectID, source)
	if err != nil {
		return 0, fmt.Errorf("delete chunks by source: %w", err)
	}
	return rowsAffected(result, "delete chunks by source")
}

func (r *ChunkRepository) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chunks WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, fmt.Errorf("delete project chunks: %w", err)
	}
	return rowsAffected(result, "delete project chunks")
}

func (r *ChunkRepository) CountBySourceType(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT source_type, COUNT(*)
FROM chunks
WHERE project_id = $1
GROUP BY source_type
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("count chunks by source type: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var sourceType string
		var count int
		if err := rows.Scan(&sourceType, &count); err != nil {
			return nil, fmt.Errorf("scan chunk count: %w", err)
		}
		out[sourceType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk counts: %w", err)
	}
	return out, nil
}

// Metadata is stored flat: the citation fields plus every Extra key at the
// top level of one JSON object.
func encodeChunkMetadata(meta domain.ChunkMetadata) ([]byte, error) {
	flat := make(map[string]any, len(meta.Extra)+4)
	for k, v := range meta.Extra {
		flat[k] = v
	}
	flat["title"] = meta.Title
	flat["source"] = meta.Source
	flat["chunk_index"] = meta.ChunkIndex
	flat["total_chunks"] = meta.TotalChunks

	raw, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("marshal chunk metadata: %w", err)
	}
	return raw, nil
}

func decodeChunkMetadata(raw []byte) (domain.ChunkMetadata, error) {
	var meta domain.ChunkMetadata
	if len(raw) == 0 {
		return meta, nil
	}
	flat := map[string]any{}
	if err := json.Unmarshal(raw, &flat); err != nil {
		return meta, fmt.Errorf("unmarshal chunk metadata: %w", err)
	}
	for k, v := range flat {
		switch k {
		case "title":
			meta.Title, _ = v.(string)
		case "source":
			meta.Source, _ = v.(string)
		case "chunk_index":
			meta.ChunkIndex = jsonInt(v)
		case "total_chunks":
			meta.TotalChunks = jsonInt(v)
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]any{}
			}
			meta.Extra[k] = v
		}
	}
	return meta, nil
}

func jsonInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

func rowsAffected(result sql.Result, operation string) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", operation, err)
	}
	return int(n), nil
}
