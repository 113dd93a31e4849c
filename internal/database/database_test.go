package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDefinesTables(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS generated_decks")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS ai_usage")
}

// Needs a disposable PostgreSQL database in DB_URL.
func TestRepositoryAgainstPostgres(t *testing.T) {
	url := os.Getenv("DB_URL")
	if url == "" {
		t.Skip("DB_URL not set")
	}
	ctx := context.Background()
	db, err := NewConnection(url)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migration must be repeatable")
	require.NoError(t, ClearDatabase(ctx, db))

	d := &GeneratedDeck{
		Filename:         "volcanoes.pptx",
		TemplateFilename: "modern_template.pptx",
		Topic:            "Volcanoes",
		Status:           "complete",
		SlideCount:       5,
		Report:           json.RawMessage(`{"status":"complete"}`),
	}
	id, err := SaveDeck(ctx, db, d)
	require.NoError(t, err)
	assert.NotZero(t, id)

	decks, err := ListDecks(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "volcanoes.pptx", decks[0].Filename)
	assert.JSONEq(t, `{"status":"complete"}`, string(decks[0].Report))

	require.NoError(t, LogAIUsage(ctx, db, &AIUsage{Provider: "gemini", Model: "gemini-2.5-flash", Operation: "outline", TotalTokens: 120, Cost: 0.25}))
	total, err := GetTotalAICost(ctx, db)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, total, 1e-9)

	n, err := GetDeckCount(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
