package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"twitch-giveaway-backend/internal/features/giveaway/models"
	"twitch-giveaway-backend/internal/features/giveaway/repository"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
)

const duplicateEntryErrNo = 1062

type mysqlRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) repository.GiveawayRepository {
	return &mysqlRepository{db: db}
}

const giveawayColumns = `id, title, description, image, prize, cash_prize, winner_count,
	draw_at, state, winner_user_id, created_at, updated_at`

func scanGiveaway(row interface{ Scan(...interface{}) error }) (*models.Giveaway, error) {
	var (
		g           models.Giveaway
		description sql.NullString
		image       sql.NullString
		prize       sql.NullString
		drawAt      sql.NullTime
		winnerID    sql.NullString
	)
	err := row.Scan(&g.ID, &g.Title, &description, &image, &prize, &g.CashPrize,
		&g.WinnerCount, &drawAt, &g.State, &winnerID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Description = description.String
	g.Image = image.String
	g.Prize = prize.String
	if drawAt.Valid {
		t := drawAt.Time.UTC()
		g.DrawAt = &t
	}
	if winnerID.Valid {
		g.WinnerID = &winnerID.String
	}
	return &g, nil
}

func (r *mysqlRepository) Create(ctx context.Context, giveaway *models.Giveaway) (int64, error) {
	query := `
		INSERT INTO giveaways (title, description, image, prize, cash_prize, winner_count, draw_at, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		giveaway.Title, nullString(giveaway.Description), nullString(giveaway.Image),
		nullString(giveaway.Prize), giveaway.CashPrize, giveaway.WinnerCount,
		nullTime(giveaway.DrawAt), giveaway.State)
	if err != nil {
		return 0, fmt.Errorf("failed to create giveaway: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

func (r *mysqlRepository) GetByID(ctx context.Context, id int64) (*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id = ?`
	g, err := scanGiveaway(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrGiveawayNotFound
		}
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	return g, nil
}

func (r *mysqlRepository) Update(ctx context.Context, giveaway *models.Giveaway) error {
	query := `
		UPDATE giveaways
		SET title = ?, description = ?, image = ?, prize = ?, cash_prize = ?,
			winner_count = ?, draw_at = ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		giveaway.Title, nullString(giveaway.Description), nullString(giveaway.Image),
		nullString(giveaway.Prize), giveaway.CashPrize, giveaway.WinnerCount,
		nullTime(giveaway.DrawAt), giveaway.ID)
	if err != nil {
		return fmt.Errorf("failed to update giveaway: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrGiveawayNotFound
	}
	return nil
}

func (r *mysqlRepository) Delete(ctx context.Context, id int64) error {
	// participants cascade via FK
	_, err := r.db.ExecContext(ctx, "DELETE FROM giveaways WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete giveaway: %w", err)
	}
	return nil
}

func (r *mysqlRepository) List(ctx context.Context, openOnly bool) ([]*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways`
	if openOnly {
		query += ` WHERE state = 'open'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func (r *mysqlRepository) ListDueCandidates(ctx context.Context) ([]*models.Giveaway, error) {
	// Due-ness is decided by the caller against its own clock. Pushing the
	// comparison into SQL would trust the server's time zone configuration.
	query := `SELECT ` + giveawayColumns + ` FROM giveaways
		WHERE state = 'open' AND draw_at IS NOT NULL
		ORDER BY draw_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list due candidates: %w", err)
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func (r *mysqlRepository) CloseIfOpen(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE giveaways SET state = 'closed', updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND state = 'open'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to close giveaway: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *mysqlRepository) AssignWinner(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE giveaways SET state = 'closed', winner_user_id = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND (state = 'open' OR (state = 'closed' AND winner_user_id IS NULL))`,
		userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to assign winner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *mysqlRepository) OverwriteWinner(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE giveaways SET winner_user_id = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND state = 'closed' AND winner_user_id IS NOT NULL`,
		userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to overwrite winner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *mysqlRepository) AddParticipant(ctx context.Context, giveawayID int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO participants (giveaway_id, user_id) VALUES (?, ?)", giveawayID, userID)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo {
			return repository.ErrDuplicateParticipant
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *mysqlRepository) RemoveParticipant(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM participants WHERE giveaway_id = ? AND user_id = ?", giveawayID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *mysqlRepository) IsParticipant(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM participants WHERE giveaway_id = ? AND user_id = ?",
		giveawayID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return true, nil
}

func (r *mysqlRepository) GetParticipants(ctx context.Context, giveawayID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM participants WHERE giveaway_id = ?", giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}
	return participants, rows.Err()
}

func (r *mysqlRepository) GetParticipantUsers(ctx context.Context, giveawayID int64) ([]*usermodels.User, error) {
	query := `
		SELECT u.id, u.display_name, u.created_at, u.updated_at
		FROM participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.giveaway_id = ?
		ORDER BY p.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant users: %w", err)
	}
	defer rows.Close()

	var users []*usermodels.User
	for rows.Next() {
		var u usermodels.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *mysqlRepository) GetParticipantsCount(ctx context.Context, giveawayID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM participants WHERE giveaway_id = ?", giveawayID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (r *mysqlRepository) ParticipantCounts(ctx context.Context, giveawayIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(giveawayIDs))
	if len(giveawayIDs) == 0 {
		return counts, nil
	}

	query := fmt.Sprintf(
		"SELECT giveaway_id, COUNT(*) FROM participants WHERE giveaway_id IN (%s) GROUP BY giveaway_id",
		placeholders(len(giveawayIDs)))
	rows, err := r.db.QueryContext(ctx, query, int64Args(giveawayIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func (r *mysqlRepository) ParticipationSet(ctx context.Context, userID string, giveawayIDs []int64) (map[int64]bool, error) {
	joined := make(map[int64]bool, len(giveawayIDs))
	if len(giveawayIDs) == 0 {
		return joined, nil
	}

	args := append([]interface{}{userID}, int64Args(giveawayIDs)...)
	query := fmt.Sprintf(
		"SELECT giveaway_id FROM participants WHERE user_id = ? AND giveaway_id IN (%s)",
		placeholders(len(giveawayIDs)))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan giveaway id: %w", err)
		}
		joined[id] = true
	}
	return joined, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
