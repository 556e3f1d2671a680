package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAQStoreRoundTrip(t *testing.T) {
	faqFile := filepath.Join(t.TempDir(), "faqs.json")

	store := NewFAQStore(faqFile)
	require.NoError(t, store.Add("Rules", "Be nice."))
	require.NoError(t, store.Add("invite", "Ask an admin."))

	// Lookups are case-insensitive.
	answer, ok := store.Answer("RULES")
	require.True(t, ok)
	assert.Equal(t, "Be nice.", answer)

	// A fresh store over the same file sees the persisted entries.
	reloaded := NewFAQStore(faqFile)
	answer, ok = reloaded.Answer("rules")
	require.True(t, ok)
	assert.Equal(t, "Be nice.", answer)
	assert.Equal(t, []string{"invite", "rules"}, reloaded.Keywords())
}

func TestFAQStoreDelete(t *testing.T) {
	faqFile := filepath.Join(t.TempDir(), "faqs.json")

	store := NewFAQStore(faqFile)
	require.NoError(t, store.Add("rules", "Be nice."))
	require.NoError(t, store.Delete("RULES"))

	_, ok := store.Answer("rules")
	assert.False(t, ok)

	// Deleting an unknown keyword is a no-op.
	require.NoError(t, store.Delete("ghost"))
}

func TestFAQStoreMissingFile(t *testing.T) {
	store := NewFAQStore(filepath.Join(t.TempDir(), "nope", "faqs.json"))

	_, ok := store.Answer("anything")
	assert.False(t, ok)
	assert.Empty(t, store.Keywords())
}
