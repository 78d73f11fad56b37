// Package store persists a WeatherRecord as a single JSON file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/observability"
)

// ErrStorage wraps every failure to write or read the record file.
var ErrStorage = errors.New("storage error")

// RecordStore saves a record to path, replacing any previous content.
type RecordStore interface {
	Save(rec models.WeatherRecord, path string) error
}

// FileStore writes records as indented UTF-8 JSON.
type FileStore struct {
	perm os.FileMode
}

func NewFileStore() *FileStore {
	return &FileStore{perm: 0o644}
}

// Save serializes rec with two-space indentation, leaving non-ASCII text and
// HTML characters unescaped, and overwrites path.
func (s *FileStore) Save(rec models.WeatherRecord, path string) error {
	data, err := Encode(rec)
	if err != nil {
		observability.RecordSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: encode record: %v", ErrStorage, err)
	}
	if err := os.WriteFile(path, data, s.perm); err != nil {
		observability.RecordSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: write %s: %w", ErrStorage, path, err)
	}
	observability.RecordSavesTotal.WithLabelValues("success").Inc()
	return nil
}

// Encode returns the on-disk form of rec.
func Encode(rec models.WeatherRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads a record previously written by Save.
func Load(path string) (models.WeatherRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: read %s: %w", ErrStorage, path, err)
	}
	var rec models.WeatherRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: decode %s: %w", ErrStorage, path, err)
	}
	return rec, nil
}
