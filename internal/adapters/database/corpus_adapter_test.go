package database_test

import (
	"testing"
)

// Note: These tests would typically use a test database or mock
// This is a structure showing TDD approach

func TestCorpusAdapter_Snapshot(t *testing.T) {
	// This test would use a test database connection
	// For now, we'll skip the actual implementation as it requires a database
	t.Skip("Requires database connection")

	t.Run("fetches the whole corpus in batched reads", func(t *testing.T) {
		// Arrange
		// ctx := context.Background()
		// adapter := database.NewCorpusAdapter(testClient)

		// Act
		// corpus, err := adapter.Snapshot(ctx)

		// Assert
		// require.NoError(t, err)
		// assert.NotEmpty(t, corpus.Conditions)
		// assert.NotEmpty(t, corpus.Guidelines)
	})
}

func TestCorpusAdapter_UpsertCondition(t *testing.T) {
	t.Skip("Requires database connection")

	t.Run("fills the ID when the condition already exists", func(t *testing.T) {
		// Arrange
		// ctx := context.Background()
		// adapter := database.NewCorpusAdapter(testClient)
		// condition := &entities.Condition{Name: "Pyelonephritis"}

		// Act
		// err := adapter.UpsertCondition(ctx, condition)

		// Assert
		// require.NoError(t, err)
		// assert.NotZero(t, condition.ID)
	})
}

func TestCorpusAdapter_ListGuidelines(t *testing.T) {
	t.Skip("Requires database connection")

	t.Run("attaches pathogen links to every guideline", func(t *testing.T) {
		// Arrange
		// ctx := context.Background()
		// adapter := database.NewCorpusAdapter(testClient)

		// Act
		// guidelines, err := adapter.ListGuidelines(ctx, repositories.GuidelineFilter{})

		// Assert
		// require.NoError(t, err)
		// for _, g := range guidelines {
		// 	assert.NotNil(t, g.Routes)
		// }
	})
}
