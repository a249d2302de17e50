package repository

import (
	"context"
	"database/sql"
)

// PostgresRepo registra as correções aplicadas pelo sweep de reconciliação
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertCorrection insere uma correção de drift no histórico
func (r *PostgresRepo) InsertCorrection(ctx context.Context, runID, userID string, oldScore, newScore int) error {
	const q = `
		INSERT INTO score_drift_corrections
		  (run_id, user_id, old_score, new_score, created_at)
		VALUES
		  ($1,$2,$3,$4,NOW())
	`
	_, err := r.DB.ExecContext(ctx, q, runID, userID, oldScore, newScore)
	return err
}
