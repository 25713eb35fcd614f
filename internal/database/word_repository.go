package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexicycle/pkg/models"
)

// WordRepository handles database operations for vocabulary
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

func termKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// UpsertWord inserts a word or updates the one with the same term, replacing
// its translations. It reports whether a new word was created.
func (r *WordRepository) UpsertWord(ctx context.Context, w *models.VocabularyItem) (bool, error) {
	created := false
	err := RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		ts := now()
		var existing struct {
			ID        int64     `db:"id"`
			CreatedAt time.Time `db:"created_at"`
		}
		err := tx.GetContext(ctx, &existing, tx.Rebind(`SELECT id, created_at FROM words WHERE term_key = ?`), termKey(w.Term))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = tx.QueryRowxContext(ctx, tx.Rebind(`
				INSERT INTO words (term, term_key, difficulty, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
				RETURNING id
			`), w.Term, termKey(w.Term), w.Difficulty, ts, ts).Scan(&w.ID)
			if err != nil {
				return fmt.Errorf("failed to create word: %w", err)
			}
			w.CreatedAt = ts
			created = true
		case err != nil:
			return fmt.Errorf("failed to get word by term: %w", err)
		default:
			_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE words SET term = ?, difficulty = ?, updated_at = ? WHERE id = ?`),
				w.Term, w.Difficulty, ts, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to update word: %w", err)
			}
			w.ID = existing.ID
			w.CreatedAt = existing.CreatedAt
		}
		w.UpdatedAt = ts

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM word_translations WHERE word_id = ?`), w.ID); err != nil {
			return fmt.Errorf("failed to clear translations: %w", err)
		}
		for lang, text := range w.Translations {
			_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO word_translations (word_id, lang, translation) VALUES (?, ?, ?)`),
				w.ID, lang, text)
			if err != nil {
				return fmt.Errorf("failed to save %s translation: %w", lang, err)
			}
		}
		return nil
	})
	return created, err
}

// ListWords returns up to limit words not in exclude, easiest first
func (r *WordRepository) ListWords(ctx context.Context, exclude []int64, limit int) ([]models.VocabularyItem, error) {
	query := `SELECT id, term, difficulty, created_at, updated_at FROM words`
	var args []interface{}
	if len(exclude) > 0 {
		q, a, err := sqlx.In(query+` WHERE id NOT IN (?)`, exclude)
		if err != nil {
			return nil, fmt.Errorf("failed to build word query: %w", err)
		}
		query, args = q, a
	}
	query += ` ORDER BY difficulty, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var words []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	if err := r.loadTranslations(ctx, words); err != nil {
		return nil, err
	}
	return words, nil
}

// GetCycleWords returns the words assigned to a cycle in position order
func (r *WordRepository) GetCycleWords(ctx context.Context, cycleID int64) ([]models.VocabularyItem, error) {
	var words []models.VocabularyItem
	query := r.db.Rebind(`
		SELECT w.id, w.term, w.difficulty, w.created_at, w.updated_at
		FROM cycle_words cw
		JOIN words w ON w.id = cw.word_id
		WHERE cw.cycle_id = ?
		ORDER BY cw.position
	`)
	if err := r.db.SelectContext(ctx, &words, query, cycleID); err != nil {
		return nil, fmt.Errorf("failed to get cycle words: %w", err)
	}
	if err := r.loadTranslations(ctx, words); err != nil {
		return nil, err
	}
	return words, nil
}

func (r *WordRepository) loadTranslations(ctx context.Context, words []models.VocabularyItem) error {
	if len(words) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(words))
	index := make(map[int64]int, len(words))
	for i := range words {
		ids = append(ids, words[i].ID)
		index[words[i].ID] = i
		words[i].Translations = make(map[string]string)
	}

	query, args, err := sqlx.In(`SELECT word_id, lang, translation FROM word_translations WHERE word_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build translation query: %w", err)
	}
	var rows []struct {
		WordID      int64  `db:"word_id"`
		Lang        string `db:"lang"`
		Translation string `db:"translation"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to get translations: %w", err)
	}
	for _, row := range rows {
		words[index[row.WordID]].Translations[row.Lang] = row.Translation
	}
	return nil
}
