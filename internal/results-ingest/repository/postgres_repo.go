package repository

import (
	"context"
	"database/sql"
)

// PostgresRepo registra o histórico de mudanças de placar aplicadas pelo
// ingest. Trilha de auditoria apenas; o estado corrente vive no store.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertResultChange insere uma mudança de campo de placar no histórico
func (r *PostgresRepo) InsertResultChange(ctx context.Context, matchID, field string, oldValue, newValue int) error {
	const q = `
		INSERT INTO match_result_history
		  (match_id, field, old_value, new_value, recorded_at)
		VALUES
		  ($1,$2,$3,$4,NOW())
	`
	_, err := r.DB.ExecContext(ctx, q, matchID, field, oldValue, newValue)
	return err
}
