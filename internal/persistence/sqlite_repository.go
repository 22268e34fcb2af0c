package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL mode reduces write latency by avoiding full fsync on every commit.
	// synchronous=NORMAL is safe with WAL and significantly faster than the default FULL.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}
	repo := &SQLiteRepository{db: db}
	if err := runMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) InsertHand(ctx context.Context, h parser.Hand) error {
	return insertHand(ctx, r, h)
}

func (r *SQLiteRepository) UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = upsertHandsTx(ctx, tx, hands)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func upsertHandsTx(ctx context.Context, tx *sql.Tx, hands []PersistedHand) (UpsertResult, error) {
	res := UpsertResult{}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, ph := range hands {
		if ph.Hand.IsZero() {
			res.Skipped++
			continue
		}
		rows := encodeHand(ph.Hand)
		head := rows.head

		var storedHash string
		err := tx.QueryRowContext(ctx, `SELECT content_hash FROM hands WHERE hand_id = ?`, head.HandID).Scan(&storedHash)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			return UpsertResult{}, fmt.Errorf("lookup hand %d: %w", head.HandID, err)
		}
		if exists && storedHash == head.ContentHash {
			res.Skipped++
			continue
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO hands(
			hand_id, game_id, table_name, table_size, button_seat, player_count, game_format,
			buy_in, rake, played_date, played_hour, dealer, dealer_pseudo,
			small_blind, big_blind, ante, total_pot, pot_rake, has_anomaly, content_hash,
			source_path, start_byte, end_byte, start_line, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hand_id) DO UPDATE SET
			game_id=excluded.game_id,
			table_name=excluded.table_name,
			table_size=excluded.table_size,
			button_seat=excluded.button_seat,
			player_count=excluded.player_count,
			game_format=excluded.game_format,
			buy_in=excluded.buy_in,
			rake=excluded.rake,
			played_date=excluded.played_date,
			played_hour=excluded.played_hour,
			dealer=excluded.dealer,
			dealer_pseudo=excluded.dealer_pseudo,
			small_blind=excluded.small_blind,
			big_blind=excluded.big_blind,
			ante=excluded.ante,
			total_pot=excluded.total_pot,
			pot_rake=excluded.pot_rake,
			has_anomaly=excluded.has_anomaly,
			content_hash=excluded.content_hash,
			source_path=excluded.source_path,
			start_byte=excluded.start_byte,
			end_byte=excluded.end_byte,
			start_line=excluded.start_line,
			updated_at=excluded.updated_at`,
			head.HandID,
			head.GameID,
			head.TableName,
			head.TableSize,
			head.ButtonSeat,
			head.PlayerCount,
			head.GameFormat,
			head.BuyIn,
			head.Rake,
			head.PlayedDate,
			head.PlayedHour,
			head.Dealer,
			head.DealerPseudo,
			head.SmallBlind,
			head.BigBlind,
			head.Ante,
			head.TotalPot,
			head.PotRake,
			boolToInt(head.HasAnomaly),
			head.ContentHash,
			nullIfEmpty(ph.Source.SourcePath),
			ph.Source.StartByte,
			ph.Source.EndByte,
			ph.Source.StartLine,
			now,
		); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert hand %d: %w", head.HandID, err)
		}

		if err := clearHandChildrenTx(ctx, tx, head.HandID); err != nil {
			return UpsertResult{}, err
		}
		if err := insertHandChildrenTx(ctx, tx, rows); err != nil {
			return UpsertResult{}, fmt.Errorf("insert children of hand %d: %w", head.HandID, err)
		}

		if exists {
			res.Updated++
		} else {
			res.Inserted++
		}
	}

	return res, nil
}

func insertHandChildrenTx(ctx context.Context, tx *sql.Tx, rows handRows) error {
	id := rows.head.HandID
	for _, s := range rows.seats {
		if _, err := tx.ExecContext(ctx, `INSERT INTO hand_seats(
			hand_id, position, seat, pseudo, stack, card0, card1, won, returned, pocket_category_id
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT id FROM pocket_categories WHERE code = ?))`,
			id, s.Position, s.Seat, s.Pseudo, s.Stack, s.Card0, s.Card1, s.Won, s.Returned, s.PocketCode,
		); err != nil {
			return err
		}
	}

	for _, b := range rows.board {
		if _, err := tx.ExecContext(ctx, `INSERT INTO hand_board_cards(hand_id, street, card_index, card) VALUES(?, ?, ?, ?)`, id, b.Street, b.Index, b.Card); err != nil {
			return err
		}
	}

	for _, a := range rows.actions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO hand_actions(
			hand_id, street, action_index, position, kind, amount
		) VALUES(?, ?, ?, ?, ?, ?)`,
			id, a.Street, a.Index, a.Position, a.Kind, a.Amount,
		); err != nil {
			return err
		}
	}

	for i, a := range rows.anomalies {
		if _, err := tx.ExecContext(ctx, `INSERT INTO hand_anomalies(hand_id, anomaly_index, code, severity, detail) VALUES(?, ?, ?, ?, ?)`, id, i, a.Code, a.Severity, a.Detail); err != nil {
			return err
		}
	}
	return nil
}

const handColumns = `hand_id, game_id, table_name, table_size, button_seat, player_count, game_format,
	buy_in, rake, played_date, played_hour, dealer, dealer_pseudo,
	small_blind, big_blind, ante, total_pot, pot_rake, has_anomaly, content_hash`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandHead(row rowScanner) (handHead, error) {
	var h handHead
	var hasAnomaly int
	err := row.Scan(
		&h.HandID,
		&h.GameID,
		&h.TableName,
		&h.TableSize,
		&h.ButtonSeat,
		&h.PlayerCount,
		&h.GameFormat,
		&h.BuyIn,
		&h.Rake,
		&h.PlayedDate,
		&h.PlayedHour,
		&h.Dealer,
		&h.DealerPseudo,
		&h.SmallBlind,
		&h.BigBlind,
		&h.Ante,
		&h.TotalPot,
		&h.PotRake,
		&hasAnomaly,
		&h.ContentHash,
	)
	h.HasAnomaly = hasAnomaly == 1
	return h, err
}

func (r *SQLiteRepository) GetHand(ctx context.Context, handID int64) (*parser.Hand, error) {
	head, err := scanHandHead(r.db.QueryRowContext(ctx, `SELECT `+handColumns+` FROM hands WHERE hand_id = ?`, handID))
	if err == sql.ErrNoRows {
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

func (r *SQLiteRepository) ListHands(ctx context.Context, f HandFilter) ([]*parser.Hand, error) {
	where, args := buildHandsFilterWhere(f)
	query := `SELECT ` + handColumns + ` FROM hands` + where + ` ORDER BY hand_id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	} else if f.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var heads []handHead
	for rows.Next() {
		head, err := scanHandHead(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		heads = append(heads, head)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(heads) == 0 {
		return []*parser.Hand{}, nil
	}
	return r.loadHands(ctx, heads)
}

func (r *SQLiteRepository) CountHands(ctx context.Context, f HandFilter) (int, error) {
	where, args := buildHandsFilterWhere(f)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hands`+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// inClause builds a SQL "IN (?, ?, ...)" placeholder string and returns the
// ids as a []any slice suitable for use as variadic query arguments.
func inClause(ids []int64) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*3)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',', '?')
		} else {
			placeholders = append(placeholders, '?')
		}
		args[i] = id
	}
	return "(" + string(placeholders) + ")", args
}

// sqliteMaxVars is the default SQLite SQLITE_MAX_VARIABLE_NUMBER limit.
// Keeping batches below this prevents "too many SQL variables" errors.
const sqliteMaxVars = 999

// loadHands batch-loads seats, board cards, actions and anomalies for heads
// with one query per child table and decodes the result in head order.
func (r *SQLiteRepository) loadHands(ctx context.Context, heads []handHead) ([]*parser.Hand, error) {
	byID := make(map[int64]*handRows, len(heads))
	ids := make([]int64, 0, len(heads))
	for _, head := range heads {
		byID[head.HandID] = &handRows{head: head}
		ids = append(ids, head.HandID)
	}
	for len(ids) > 0 {
		chunk := ids
		if len(chunk) > sqliteMaxVars {
			chunk = ids[:sqliteMaxVars]
		}
		ids = ids[len(chunk):]
		if err := r.loadChildrenChunk(ctx, chunk, byID); err != nil {
			return nil, err
		}
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

func (r *SQLiteRepository) loadChildrenChunk(ctx context.Context, ids []int64, byID map[int64]*handRows) error {
	in, args := inClause(ids)

	// Seats
	seatRows, err := r.db.QueryContext(ctx,
		`SELECT hand_id, position, seat, pseudo, stack, card0, card1, won, returned
		 FROM hand_seats WHERE hand_id IN `+in+` ORDER BY hand_id ASC, seat ASC`, args...)
	if err != nil {
		return err
	}
	for seatRows.Next() {
		var id int64
		var s seatRow
		var won, returned sql.NullString
		if err := seatRows.Scan(&id, &s.Position, &s.Seat, &s.Pseudo, &s.Stack, &s.Card0, &s.Card1, &won, &returned); err != nil {
			seatRows.Close()
			return err
		}
		s.Won = nullStringPtr(won)
		s.Returned = nullStringPtr(returned)
		if hr, ok := byID[id]; ok {
			hr.seats = append(hr.seats, s)
		}
	}
	seatRows.Close()

	// Board cards
	boardRows, err := r.db.QueryContext(ctx,
		`SELECT hand_id, street, card_index, card FROM hand_board_cards WHERE hand_id IN `+in+` ORDER BY hand_id ASC, street ASC, card_index ASC`, args...)
	if err != nil {
		return err
	}
	for boardRows.Next() {
		var id int64
		var b boardRow
		if err := boardRows.Scan(&id, &b.Street, &b.Index, &b.Card); err != nil {
			boardRows.Close()
			return err
		}
		if hr, ok := byID[id]; ok {
			hr.board = append(hr.board, b)
		}
	}
	boardRows.Close()

	// Actions
	actionRows, err := r.db.QueryContext(ctx,
		`SELECT hand_id, street, action_index, position, kind, amount FROM hand_actions
		 WHERE hand_id IN `+in+` ORDER BY hand_id ASC, street ASC, action_index ASC`, args...)
	if err != nil {
		return err
	}
	for actionRows.Next() {
		var id int64
		var a actionRow
		if err := actionRows.Scan(&id, &a.Street, &a.Index, &a.Position, &a.Kind, &a.Amount); err != nil {
			actionRows.Close()
			return err
		}
		if hr, ok := byID[id]; ok {
			hr.actions = append(hr.actions, a)
		}
	}
	actionRows.Close()

	// Anomalies
	anomRows, err := r.db.QueryContext(ctx,
		`SELECT hand_id, code, severity, detail FROM hand_anomalies WHERE hand_id IN `+in+` ORDER BY hand_id ASC, anomaly_index ASC`, args...)
	if err != nil {
		return err
	}
	for anomRows.Next() {
		var id int64
		var a parser.HandAnomaly
		if err := anomRows.Scan(&id, &a.Code, &a.Severity, &a.Detail); err != nil {
			anomRows.Close()
			return err
		}
		if hr, ok := byID[id]; ok {
			hr.anomalies = append(hr.anomalies, a)
		}
	}
	anomRows.Close()

	return nil
}

func (r *SQLiteRepository) GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT source_path, next_byte_offset, next_line_number, last_hand_id,
		is_fully_imported, updated_at
		FROM import_cursors WHERE source_path = ?`, sourcePath)
	var c ImportCursor
	var isFullyImported int
	var updatedAt string
	if err := row.Scan(
		&c.SourcePath,
		&c.NextByteOffset,
		&c.NextLineNumber,
		&c.LastHandID,
		&isFullyImported,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.IsFullyImported = isFullyImported == 1
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return &c, nil
}

func (r *SQLiteRepository) SaveCursor(ctx context.Context, c ImportCursor) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return saveCursorTx(ctx, tx, c)
	})
}

func (r *SQLiteRepository) MarkFullyImported(ctx context.Context, sourcePath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE import_cursors SET is_fully_imported=1, updated_at=? WHERE source_path=?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		sourcePath,
	)
	return err
}

func (r *SQLiteRepository) SaveImportBatch(ctx context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = upsertHandsTx(ctx, tx, hands)
		if err != nil {
			return err
		}
		return saveCursorTx(ctx, tx, c)
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func saveCursorTx(ctx context.Context, tx *sql.Tx, c ImportCursor) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO import_cursors(
		source_path, next_byte_offset, next_line_number, last_hand_id, is_fully_imported, updated_at
	) VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_path) DO UPDATE SET
		next_byte_offset=excluded.next_byte_offset,
		next_line_number=excluded.next_line_number,
		last_hand_id=excluded.last_hand_id,
		is_fully_imported=excluded.is_fully_imported,
		updated_at=excluded.updated_at`,
		c.SourcePath,
		c.NextByteOffset,
		c.NextLineNumber,
		c.LastHandID,
		boolToInt(c.IsFullyImported),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func clearHandChildrenTx(ctx context.Context, tx *sql.Tx, handID int64) error {
	for _, table := range handChildTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE hand_id = ?`, table), handID); err != nil {
			return err
		}
	}
	return nil
}

var handChildTables = []string{"hand_actions", "hand_board_cards", "hand_seats", "hand_anomalies"}

func buildHandsFilterWhere(f HandFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0, 2)
	if f.GameID != nil {
		clauses = append(clauses, `game_id = ?`)
		args = append(args, *f.GameID)
	}
	if f.Pseudo != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM hand_seats WHERE hand_seats.hand_id = hands.hand_id AND hand_seats.pseudo = ?)`)
		args = append(args, f.Pseudo)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
