package persistence

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

//go:embed postgres_schema.sql
var postgresSchema string

// PostgresRepository stores hands in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to dsn and applies the schema.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	repo := &PostgresRepository{pool: pool}
	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	batch := &pgx.Batch{}
	for _, cat := range stats.AllPocketCategories() {
		batch.Queue(`INSERT INTO pocket_categories(code, label) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			stats.PocketCategoryCode(cat), stats.PocketCategoryLabel(cat))
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed pocket categories: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.pool == nil {
		return nil
	}
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) InsertHand(ctx context.Context, h parser.Hand) error {
	return insertHand(ctx, r, h)
}

func (r *PostgresRepository) UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error) {
	var res UpsertResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		res, err = pgUpsertHandsTx(ctx, tx, hands)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func pgUpsertHandsTx(ctx context.Context, tx pgx.Tx, hands []PersistedHand) (UpsertResult, error) {
	res := UpsertResult{}
	for _, ph := range hands {
		if ph.Hand.IsZero() {
			res.Skipped++
			continue
		}
		rows := encodeHand(ph.Hand)
		head := rows.head

		var storedHash string
		err := tx.QueryRow(ctx, `SELECT content_hash FROM hands WHERE hand_id = $1`, head.HandID).Scan(&storedHash)
		exists := err == nil
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return UpsertResult{}, fmt.Errorf("lookup hand %d: %w", head.HandID, err)
		}
		if exists && storedHash == head.ContentHash {
			res.Skipped++
			continue
		}

		batch := &pgx.Batch{}
		batch.Queue(`
			INSERT INTO hands(
				hand_id, game_id, table_name, table_size, button_seat, player_count, game_format,
				buy_in, rake, played_date, played_hour, dealer, dealer_pseudo,
				small_blind, big_blind, ante, total_pot, pot_rake, has_anomaly, content_hash,
				source_path, start_byte, end_byte, start_line, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24, now())
			ON CONFLICT (hand_id) DO UPDATE SET
				game_id = EXCLUDED.game_id,
				table_name = EXCLUDED.table_name,
				table_size = EXCLUDED.table_size,
				button_seat = EXCLUDED.button_seat,
				player_count = EXCLUDED.player_count,
				game_format = EXCLUDED.game_format,
				buy_in = EXCLUDED.buy_in,
				rake = EXCLUDED.rake,
				played_date = EXCLUDED.played_date,
				played_hour = EXCLUDED.played_hour,
				dealer = EXCLUDED.dealer,
				dealer_pseudo = EXCLUDED.dealer_pseudo,
				small_blind = EXCLUDED.small_blind,
				big_blind = EXCLUDED.big_blind,
				ante = EXCLUDED.ante,
				total_pot = EXCLUDED.total_pot,
				pot_rake = EXCLUDED.pot_rake,
				has_anomaly = EXCLUDED.has_anomaly,
				content_hash = EXCLUDED.content_hash,
				source_path = EXCLUDED.source_path,
				start_byte = EXCLUDED.start_byte,
				end_byte = EXCLUDED.end_byte,
				start_line = EXCLUDED.start_line,
				updated_at = now()`,
			head.HandID, head.GameID, head.TableName, head.TableSize, head.ButtonSeat, head.PlayerCount, head.GameFormat,
			head.BuyIn, head.Rake, head.PlayedDate, head.PlayedHour, head.Dealer, head.DealerPseudo,
			head.SmallBlind, head.BigBlind, head.Ante, head.TotalPot, head.PotRake, head.HasAnomaly, head.ContentHash,
			nullIfEmpty(ph.Source.SourcePath), ph.Source.StartByte, ph.Source.EndByte, ph.Source.StartLine,
		)
		for _, table := range handChildTables {
			batch.Queue(`DELETE FROM `+table+` WHERE hand_id = $1`, head.HandID)
		}
		for _, s := range rows.seats {
			batch.Queue(`
				INSERT INTO hand_seats(hand_id, position, seat, pseudo, stack, card0, card1, won, returned, pocket_category_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,(SELECT id FROM pocket_categories WHERE code = $10))`,
				head.HandID, s.Position, s.Seat, s.Pseudo, s.Stack, s.Card0, s.Card1, s.Won, s.Returned, s.PocketCode)
		}
		for _, b := range rows.board {
			batch.Queue(`INSERT INTO hand_board_cards(hand_id, street, card_index, card) VALUES ($1,$2,$3,$4)`, head.HandID, b.Street, b.Index, b.Card)
		}
		for _, a := range rows.actions {
			batch.Queue(`INSERT INTO hand_actions(hand_id, street, action_index, position, kind, amount) VALUES ($1,$2,$3,$4,$5,$6)`,
				head.HandID, a.Street, a.Index, a.Position, a.Kind, a.Amount)
		}
		for i, a := range rows.anomalies {
			batch.Queue(`INSERT INTO hand_anomalies(hand_id, anomaly_index, code, severity, detail) VALUES ($1,$2,$3,$4,$5)`,
				head.HandID, i, a.Code, a.Severity, a.Detail)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert hand %d: %w", head.HandID, err)
		}

		if exists {
			res.Updated++
		} else {
			res.Inserted++
		}
	}
	return res, nil
}

func pgScanHandHead(row pgx.Row) (handHead, error) {
	var h handHead
	err := row.Scan(
		&h.HandID, &h.GameID, &h.TableName, &h.TableSize, &h.ButtonSeat, &h.PlayerCount, &h.GameFormat,
		&h.BuyIn, &h.Rake, &h.PlayedDate, &h.PlayedHour, &h.Dealer, &h.DealerPseudo,
		&h.SmallBlind, &h.BigBlind, &h.Ante, &h.TotalPot, &h.PotRake, &h.HasAnomaly, &h.ContentHash,
	)
	return h, err
}

func (r *PostgresRepository) GetHand(ctx context.Context, handID int64) (*parser.Hand, error) {
	head, err := pgScanHandHead(r.pool.QueryRow(ctx, `SELECT `+handColumns+` FROM hands WHERE hand_id = $1`, handID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	hands, err := r.loadHands(ctx, []handHead{head})
	if err != nil {
		return nil, err
	}
	return hands[0], nil
}

func (r *PostgresRepository) ListHands(ctx context.Context, f HandFilter) ([]*parser.Hand, error) {
	where, args := pgFilterWhere(f)
	query := `SELECT ` + handColumns + ` FROM hands` + where + ` ORDER BY hand_id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var heads []handHead
	for rows.Next() {
		head, err := pgScanHandHead(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		heads = append(heads, head)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return []*parser.Hand{}, nil
	}
	return r.loadHands(ctx, heads)
}

func (r *PostgresRepository) CountHands(ctx context.Context, f HandFilter) (int, error) {
	where, args := pgFilterWhere(f)
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hands`+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) loadHands(ctx context.Context, heads []handHead) ([]*parser.Hand, error) {
	byID := make(map[int64]*handRows, len(heads))
	ids := make([]int64, 0, len(heads))
	for _, head := range heads {
		byID[head.HandID] = &handRows{head: head}
		ids = append(ids, head.HandID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT hand_id, position, seat, pseudo, stack, card0, card1, won, returned
		  FROM hand_seats WHERE hand_id = ANY($1) ORDER BY hand_id, seat`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var s seatRow
		if err := rows.Scan(&id, &s.Position, &s.Seat, &s.Pseudo, &s.Stack, &s.Card0, &s.Card1, &s.Won, &s.Returned); err != nil {
			rows.Close()
			return nil, err
		}
		byID[id].seats = append(byID[id].seats, s)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT hand_id, street, card_index, card FROM hand_board_cards WHERE hand_id = ANY($1) ORDER BY hand_id, street, card_index`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var b boardRow
		if err := rows.Scan(&id, &b.Street, &b.Index, &b.Card); err != nil {
			rows.Close()
			return nil, err
		}
		byID[id].board = append(byID[id].board, b)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `
		SELECT hand_id, street, action_index, position, kind, amount
		  FROM hand_actions WHERE hand_id = ANY($1) ORDER BY hand_id, street, action_index`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var a actionRow
		if err := rows.Scan(&id, &a.Street, &a.Index, &a.Position, &a.Kind, &a.Amount); err != nil {
			rows.Close()
			return nil, err
		}
		byID[id].actions = append(byID[id].actions, a)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT hand_id, code, severity, detail FROM hand_anomalies WHERE hand_id = ANY($1) ORDER BY hand_id, anomaly_index`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var a parser.HandAnomaly
		if err := rows.Scan(&id, &a.Code, &a.Severity, &a.Detail); err != nil {
			rows.Close()
			return nil, err
		}
		byID[id].anomalies = append(byID[id].anomalies, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*parser.Hand, 0, len(heads))
	for _, head := range heads {
		h, err := byID[head.HandID].decode()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *PostgresRepository) GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error) {
	var c ImportCursor
	err := r.pool.QueryRow(ctx, `
		SELECT source_path, next_byte_offset, next_line_number, last_hand_id, is_fully_imported, updated_at
		  FROM import_cursors WHERE source_path = $1`, sourcePath).Scan(
		&c.SourcePath, &c.NextByteOffset, &c.NextLineNumber, &c.LastHandID, &c.IsFullyImported, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) SaveCursor(ctx context.Context, c ImportCursor) error {
	return pgSaveCursor(ctx, r.pool, c)
}

func (r *PostgresRepository) MarkFullyImported(ctx context.Context, sourcePath string) error {
	_, err := r.pool.Exec(ctx, `UPDATE import_cursors SET is_fully_imported = TRUE, updated_at = now() WHERE source_path = $1`, sourcePath)
	return err
}

func (r *PostgresRepository) SaveImportBatch(ctx context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	var res UpsertResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		res, err = pgUpsertHandsTx(ctx, tx, hands)
		if err != nil {
			return err
		}
		return pgSaveCursor(ctx, tx, c)
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgSaveCursor(ctx context.Context, db pgExecer, c ImportCursor) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO import_cursors(source_path, next_byte_offset, next_line_number, last_hand_id, is_fully_imported, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (source_path) DO UPDATE
		   SET next_byte_offset = EXCLUDED.next_byte_offset,
		       next_line_number = EXCLUDED.next_line_number,
		       last_hand_id = EXCLUDED.last_hand_id,
		       is_fully_imported = EXCLUDED.is_fully_imported,
		       updated_at = EXCLUDED.updated_at`,
		c.SourcePath, c.NextByteOffset, c.NextLineNumber, c.LastHandID, c.IsFullyImported, updatedAt.UTC(),
	)
	return err
}

func pgFilterWhere(f HandFilter) (string, []any) {
	clauses := []string{"TRUE"}
	var args []any
	if f.GameID != nil {
		args = append(args, *f.GameID)
		clauses = append(clauses, `game_id = $`+strconv.Itoa(len(args)))
	}
	if f.Pseudo != "" {
		args = append(args, f.Pseudo)
		clauses = append(clauses, `EXISTS (SELECT 1 FROM hand_seats s WHERE s.hand_id = hands.hand_id AND s.pseudo = $`+strconv.Itoa(len(args))+`)`)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
