package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FAQStore manages the keyword-to-answer FAQ file.
// The map is loaded once at startup and written back on every change.
type FAQStore struct {
	faqFile string
	mutex   sync.Mutex
	faqs    map[string]string
}

// NewFAQStore creates a new FAQ store, loading the file if it exists.
// A missing or unreadable file yields an empty map, not an error.
func NewFAQStore(faqFile string) *FAQStore {
	store := &FAQStore{
		faqFile: faqFile,
		faqs:    make(map[string]string),
	}

	data, err := os.ReadFile(faqFile)
	if err == nil {
		var loaded map[string]string
		if json.Unmarshal(data, &loaded) == nil {
			store.faqs = loaded
		}
	}
	return store
}

// Add inserts or replaces the answer for a keyword and persists the map.
func (fs *FAQStore) Add(keyword, answer string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	fs.faqs[strings.ToLower(keyword)] = answer
	return fs.save()
}

// Delete removes a keyword and persists the map. Removing an unknown
// keyword is a no-op.
func (fs *FAQStore) Delete(keyword string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	delete(fs.faqs, strings.ToLower(keyword))
	return fs.save()
}

// Answer looks up the answer for a keyword.
func (fs *FAQStore) Answer(keyword string) (string, bool) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	answer, ok := fs.faqs[strings.ToLower(keyword)]
	return answer, ok
}

// Keywords returns all known keywords, sorted for stable listings.
func (fs *FAQStore) Keywords() []string {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	keywords := make([]string, 0, len(fs.faqs))
	for k := range fs.faqs {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// save commits the current FAQ map to the JSON file.
// Callers must hold fs.mutex.
func (fs *FAQStore) save() error {
	// Ensure the directory exists.
	dir := filepath.Dir(fs.faqFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create faq directory: %w", err)
	}

	// Marshal the data to JSON.
	data, err := json.MarshalIndent(fs.faqs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal faqs: %w", err)
	}

	// Write the file, overwriting it if it exists.
	if err := os.WriteFile(fs.faqFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write faq file: %w", err)
	}

	return nil
}
