// Package postgres is the durable store.Store backend: one row per game
// in a "games" table, with the parts of gamestate.State that don't have
// a natural column (hands, deck, discard pile, pending attack) carried
// as jsonb. Grounded on models.go's db-tag struct style and sqlx usage
// throughout the teacher's handlers; the participation insert uses the
// teacher's tx.Exec-inside-a-transaction idiom.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/rules"
	"github.com/playrachel/engine/internal/store"
)

// Store is a sqlx-backed store.Store.
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// gameRow is the "games" table's column layout. jsonb columns carry the
// parts of State with no natural flat representation.
type gameRow struct {
	ID                 string        `db:"id"`
	Status             string        `db:"status"`
	Players            []byte        `db:"players"`
	Deck               []byte        `db:"deck"`
	DiscardPile        []byte        `db:"discard_pile"`
	CurrentPlayerIndex int           `db:"current_player_index"`
	Direction          int           `db:"direction"`
	PendingAttack      []byte        `db:"pending_attack"`
	PendingSkips       int           `db:"pending_skips"`
	NominatedSuit      sql.NullInt32 `db:"nominated_suit"`
	Winners            []byte        `db:"winners"`
	TurnCount          int           `db:"turn_count"`
	DeckCount          int           `db:"deck_count"`
	ExpectedTotalCards int           `db:"expected_total_cards"`
	CreatedAt          time.Time     `db:"created_at"`
	LastActionAt       time.Time     `db:"last_action_at"`
	ErrorCount         int           `db:"error_count"`
}

func toRow(s gamestate.State) (gameRow, error) {
	players, err := json.Marshal(s.Players)
	if err != nil {
		return gameRow{}, fmt.Errorf("marshal players: %w", err)
	}
	deck, err := json.Marshal(s.Deck)
	if err != nil {
		return gameRow{}, fmt.Errorf("marshal deck: %w", err)
	}
	discard, err := json.Marshal(s.DiscardPile)
	if err != nil {
		return gameRow{}, fmt.Errorf("marshal discard pile: %w", err)
	}
	winners, err := json.Marshal(s.Winners)
	if err != nil {
		return gameRow{}, fmt.Errorf("marshal winners: %w", err)
	}
	var attack []byte
	if s.PendingAttack != nil {
		attack, err = json.Marshal(s.PendingAttack)
		if err != nil {
			return gameRow{}, fmt.Errorf("marshal pending attack: %w", err)
		}
	}
	row := gameRow{
		ID:                 s.ID,
		Status:             string(s.Status),
		Players:            players,
		Deck:               deck,
		DiscardPile:        discard,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		Direction:          int(s.Direction),
		PendingAttack:      attack,
		PendingSkips:       s.PendingSkips,
		Winners:            winners,
		TurnCount:          s.TurnCount,
		DeckCount:          s.DeckCount,
		ExpectedTotalCards: s.ExpectedTotalCards,
		CreatedAt:          s.CreatedAt,
		LastActionAt:       s.LastActionAt,
		ErrorCount:         s.ErrorCount,
	}
	if s.NominatedSuit != nil {
		row.NominatedSuit = sql.NullInt32{Int32: int32(*s.NominatedSuit), Valid: true}
	}
	return row, nil
}

func fromRow(row gameRow) (gamestate.State, error) {
	s := gamestate.State{
		ID:                 row.ID,
		Status:             gamestate.Status(row.Status),
		CurrentPlayerIndex: row.CurrentPlayerIndex,
		Direction:          rules.Direction(row.Direction),
		PendingSkips:       row.PendingSkips,
		TurnCount:          row.TurnCount,
		DeckCount:          row.DeckCount,
		ExpectedTotalCards: row.ExpectedTotalCards,
		CreatedAt:          row.CreatedAt,
		LastActionAt:       row.LastActionAt,
		ErrorCount:         row.ErrorCount,
	}
	if err := json.Unmarshal(row.Players, &s.Players); err != nil {
		return gamestate.State{}, fmt.Errorf("unmarshal players: %w", err)
	}
	if err := json.Unmarshal(row.Deck, &s.Deck); err != nil {
		return gamestate.State{}, fmt.Errorf("unmarshal deck: %w", err)
	}
	if err := json.Unmarshal(row.DiscardPile, &s.DiscardPile); err != nil {
		return gamestate.State{}, fmt.Errorf("unmarshal discard pile: %w", err)
	}
	if len(row.Winners) > 0 {
		if err := json.Unmarshal(row.Winners, &s.Winners); err != nil {
			return gamestate.State{}, fmt.Errorf("unmarshal winners: %w", err)
		}
	}
	if len(row.PendingAttack) > 0 {
		var attack rules.Attack
		if err := json.Unmarshal(row.PendingAttack, &attack); err != nil {
			return gamestate.State{}, fmt.Errorf("unmarshal pending attack: %w", err)
		}
		s.PendingAttack = &attack
	}
	if row.NominatedSuit.Valid {
		suit := cards.Suit(row.NominatedSuit.Int32)
		s.NominatedSuit = &suit
	}
	return s, nil
}

const upsertSQL = `
INSERT INTO games (
	id, status, players, deck, discard_pile, current_player_index, direction,
	pending_attack, pending_skips, nominated_suit, winners, turn_count,
	deck_count, expected_total_cards, created_at, last_action_at, error_count
) VALUES (
	:id, :status, :players, :deck, :discard_pile, :current_player_index, :direction,
	:pending_attack, :pending_skips, :nominated_suit, :winners, :turn_count,
	:deck_count, :expected_total_cards, :created_at, :last_action_at, :error_count
)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	players = EXCLUDED.players,
	deck = EXCLUDED.deck,
	discard_pile = EXCLUDED.discard_pile,
	current_player_index = EXCLUDED.current_player_index,
	direction = EXCLUDED.direction,
	pending_attack = EXCLUDED.pending_attack,
	pending_skips = EXCLUDED.pending_skips,
	nominated_suit = EXCLUDED.nominated_suit,
	winners = EXCLUDED.winners,
	turn_count = EXCLUDED.turn_count,
	deck_count = EXCLUDED.deck_count,
	expected_total_cards = EXCLUDED.expected_total_cards,
	last_action_at = EXCLUDED.last_action_at,
	error_count = EXCLUDED.error_count
`

// Save upserts the game's full state in one row.
func (s *Store) Save(ctx context.Context, state gamestate.State) error {
	row, err := toRow(state)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, upsertSQL, row)
	if err != nil {
		return fmt.Errorf("postgres: save game %s: %w", state.ID, err)
	}
	return nil
}

// Load fetches a game by id.
func (s *Store) Load(ctx context.Context, gameID string) (gamestate.State, error) {
	var row gameRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM games WHERE id = $1`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return gamestate.State{}, store.ErrNotFound
	}
	if err != nil {
		return gamestate.State{}, fmt.Errorf("postgres: load game %s: %w", gameID, err)
	}
	return fromRow(row)
}

// Delete removes a game row.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("postgres: delete game %s: %w", gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete game %s: %w", gameID, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByStatus returns every game currently in the given status, used on
// boot to figure out which games need a live engine relaunched.
func (s *Store) ListByStatus(ctx context.Context, status gamestate.Status) ([]gamestate.State, error) {
	var rows []gameRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM games WHERE status = $1`, string(status)); err != nil {
		return nil, fmt.Errorf("postgres: list games by status %s: %w", status, err)
	}
	out := make([]gamestate.State, 0, len(rows))
	for _, row := range rows {
		state, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}

// ListStale returns the ids of games whose last action predates their
// status's idle threshold.
func (s *Store) ListStale(ctx context.Context, now time.Time, thresholds store.IdleThresholds) ([]string, error) {
	const q = `
SELECT id FROM games
WHERE (status = 'finished' AND last_action_at < $1)
   OR (status = 'waiting'  AND last_action_at < $2)
   OR (status = 'playing'  AND last_action_at < $3)
`
	var ids []string
	err := s.db.SelectContext(ctx, &ids, q,
		now.Add(-thresholds.Finished),
		now.Add(-thresholds.Waiting),
		now.Add(-thresholds.Playing),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list stale games: %w", err)
	}
	return ids, nil
}

// RecordUserParticipation inserts one row per registered-user seat in a
// finished game, all within a single transaction, grounded on the
// teacher's transactional transfer-ledger writes.
func (s *Store) RecordUserParticipation(ctx context.Context, finished gamestate.State) error {
	ranks := store.ComputeFinalRanks(finished)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin participation tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO game_participation (user_id, game_id, final_rank, turns_taken)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, game_id) DO NOTHING
`
	for _, p := range finished.Players {
		if p.UserID == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, q, *p.UserID, finished.ID, ranks[p.ID], finished.TurnCount); err != nil {
			return fmt.Errorf("postgres: record participation for %s: %w", *p.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit participation tx: %w", err)
	}
	return nil
}
