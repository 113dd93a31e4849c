package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type GeneratedDeck struct {
	ID               int             `json:"id"`
	Filename         string          `json:"filename"`
	TemplateFilename string          `json:"template_filename"`
	Topic            string          `json:"topic"`
	Status           string          `json:"status"`
	SlideCount       int             `json:"slide_count"`
	DegradedCount    int             `json:"degraded_count"`
	Report           json.RawMessage `json:"report"`
	CreatedAt        time.Time       `json:"created_at"`
}

type AIUsage struct {
	ID               int       `json:"id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Operation        string    `json:"operation"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Cost             float64   `json:"cost"`
	CreatedAt        time.Time `json:"created_at"`
}

func SaveDeck(ctx context.Context, db *sql.DB, d *GeneratedDeck) (int, error) {
	report := d.Report
	if len(report) == 0 {
		report = json.RawMessage("{}")
	}
	query := `
		INSERT INTO generated_decks (filename, template_filename, topic, status, slide_count, degraded_count, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := db.QueryRowContext(ctx, query, d.Filename, d.TemplateFilename, d.Topic, d.Status, d.SlideCount, d.DegradedCount, []byte(report)).
		Scan(&d.ID, &d.CreatedAt)
	return d.ID, err
}

// ListDecks returns the most recent builds first.
func ListDecks(ctx context.Context, db *sql.DB, limit int) ([]GeneratedDeck, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, filename, template_filename, topic, status, slide_count, degraded_count, report, created_at
		FROM generated_decks ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []GeneratedDeck{}
	for rows.Next() {
		var d GeneratedDeck
		var report []byte
		if err := rows.Scan(&d.ID, &d.Filename, &d.TemplateFilename, &d.Topic, &d.Status, &d.SlideCount, &d.DegradedCount, &report, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Report = report
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func LogAIUsage(ctx context.Context, db *sql.DB, u *AIUsage) error {
	query := `
		INSERT INTO ai_usage (provider, model, operation, prompt_tokens, completion_tokens, total_tokens, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.ExecContext(ctx, query, u.Provider, u.Model, u.Operation, u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.Cost)
	return err
}

func GetTotalAICost(ctx context.Context, db *sql.DB) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx, "SELECT COALESCE(SUM(cost), 0) FROM ai_usage").Scan(&total)
	return total, err
}

func GetDeckCount(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generated_decks").Scan(&count)
	return count, err
}

func ClearDatabase(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "DELETE FROM generated_decks; DELETE FROM ai_usage")
	return err
}
