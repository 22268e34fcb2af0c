package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

func init() {
	goose.AddMigrationContext(Up00002, Down00002)
}

func Up00002(ctx context.Context, tx *sql.Tx) error {
	if err := seedPocketCategories(ctx, tx); err != nil {
		return err
	}
	return backfillSeatPocketCategories(ctx, tx)
}

func Down00002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE hand_seats SET pocket_category_id = NULL`); err != nil {
		return fmt.Errorf("clear seat pocket categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pocket_categories`); err != nil {
		return fmt.Errorf("delete pocket categories: %w", err)
	}
	return nil
}

func seedPocketCategories(ctx context.Context, tx *sql.Tx) error {
	for _, cat := range stats.AllPocketCategories() {
		code := stats.PocketCategoryCode(cat)
		label := stats.PocketCategoryLabel(cat)
		if code == "" || label == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO pocket_categories(code, label) VALUES(?, ?)`, code, label); err != nil {
			return fmt.Errorf("insert pocket category %s: %w", code, err)
		}
	}
	return nil
}

// backfillSeatPocketCategories sets the category of seats stored before the
// categories existed.
func backfillSeatPocketCategories(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT hand_id, position, card0, card1 FROM hand_seats WHERE pocket_category_id IS NULL`)
	if err != nil {
		return fmt.Errorf("select seats for backfill: %w", err)
	}
	type pending struct {
		handID   int64
		position string
		code     string
	}
	var updates []pending
	for rows.Next() {
		var p pending
		var c0, c1 string
		if err := rows.Scan(&p.handID, &p.position, &c0, &c1); err != nil {
			rows.Close()
			return fmt.Errorf("scan seat row: %w", err)
		}
		cats := stats.ClassifyPocketHand(parser.ParseCard(c0), parser.ParseCard(c1))
		if len(cats) == 0 {
			continue
		}
		p.code = stats.PocketCategoryCode(cats[0])
		updates = append(updates, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate seats: %w", err)
	}
	rows.Close()

	for _, p := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE hand_seats
			SET pocket_category_id = (SELECT id FROM pocket_categories WHERE code = ?)
			WHERE hand_id = ? AND position = ?`,
			p.code, p.handID, p.position); err != nil {
			return fmt.Errorf("update seat pocket category: %w", err)
		}
	}
	return nil
}
