package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
)

const planningColumns = `id, content_id, file_name, playlist_id, playlist_name, display_seconds,
		validity_start, validity_end, success, message, created_at`

// PlanningRepository stores [models.PlanningRecord] rows in the planning_history table.
type PlanningRepository struct {
	db *sql.DB
}

// NewPlanningRepository creates a new PlanningRepository with the given database connection
func NewPlanningRepository(db *sql.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

// Create inserts record with a generated ID. CreatedAt defaults to now.
func (r *PlanningRepository) Create(record *models.PlanningRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	record.ID = shared.GenerateID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now()
	}

	query := `
		INSERT INTO planning_history (` + planningColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.ContentID,
		record.FileName,
		record.PlaylistID,
		record.PlaylistName,
		record.DisplaySeconds,
		record.ValidityStart,
		record.ValidityEnd,
		record.Success,
		record.Message,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert planning record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID
func (r *PlanningRepository) Get(id string) (*models.PlanningRecord, error) {
	query := `SELECT ` + planningColumns + ` FROM planning_history WHERE id = ?`

	record, err := scanPlanning(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: planning record %s", shared.ErrRecordNotFound, id)
	}
	return record, err
}

// List retrieves records newest first.
//
// Supported criteria: "content_id" and "playlist_id" (string), "success" (bool), "limit" (int).
func (r *PlanningRepository) List(criteria map[string]any) ([]*models.PlanningRecord, error) {
	query := `SELECT ` + planningColumns + ` FROM planning_history WHERE 1 = 1`
	args := []any{}

	if contentID, ok := criteria["content_id"].(string); ok && contentID != "" {
		query += " AND content_id = ?"
		args = append(args, contentID)
	}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if success, ok := criteria["success"].(bool); ok {
		query += " AND success = ?"
		args = append(args, success)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query planning history: %w", err)
	}
	defer rows.Close()

	records := []*models.PlanningRecord{}
	for rows.Next() {
		record, err := scanPlanning(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Count returns the number of stored records.
func (r *PlanningRepository) Count() (int, error) {
	return countRows(r.db, "planning_history")
}

// Clear deletes every record and returns how many were removed.
func (r *PlanningRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM planning_history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear planning history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func scanPlanning(row rowScanner) (*models.PlanningRecord, error) {
	var record models.PlanningRecord

	err := row.Scan(
		&record.ID,
		&record.ContentID,
		&record.FileName,
		&record.PlaylistID,
		&record.PlaylistName,
		&record.DisplaySeconds,
		&record.ValidityStart,
		&record.ValidityEnd,
		&record.Success,
		&record.Message,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan planning record: %w", err)
	}

	return &record, nil
}
