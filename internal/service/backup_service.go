package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"fellowship/internal/database"
)

// BackupVersion is written into every export
const BackupVersion = "2.0"

// ErrInvalidBackup is returned for files that are not a readable backup of this version
var ErrInvalidBackup = errors.New("invalid backup file")

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                    `json:"version"`
	ExportedAt   time.Time                 `json:"exported_at"`
	DatabaseType string                    `json:"database_type"`
	Tables       map[string][]BackupRecord `json:"tables"`
}

// BackupRecord is one row keyed by column name
type BackupRecord map[string]interface{}

type columnKind int

const (
	textColumn columnKind = iota
	nullTextColumn
	timeColumn
	boolColumn
	intColumn
	floatColumn
)

type backupColumn struct {
	name string
	kind columnKind
}

type backupTable struct {
	name    string
	keys    []string
	columns []backupColumn
}

func cols(kind columnKind, names ...string) []backupColumn {
	out := make([]backupColumn, len(names))
	for i, n := range names {
		out[i] = backupColumn{name: n, kind: kind}
	}
	return out
}

func table(name string, keys []string, groups ...[]backupColumn) backupTable {
	t := backupTable{name: name, keys: keys}
	for _, g := range groups {
		t.columns = append(t.columns, g...)
	}
	return t
}

var byID = []string{"id"}

// backupTables lists tables in dependency order. Sessions, reset tokens and
// prayer markers are short-lived and not exported.
var backupTables = []backupTable{
	table("users", byID,
		cols(textColumn, "id", "email", "password_hash", "name", "avatar_url", "bio", "role"),
		cols(boolColumn, "dark_mode"),
		cols(nullTextColumn, "oauth_provider", "oauth_subject"),
		cols(timeColumn, "created_at", "updated_at")),
	table("sermons", byID,
		cols(textColumn, "id", "title", "speaker", "series"),
		cols(timeColumn, "preached_on"),
		cols(textColumn, "description", "image_url", "video_url", "audio_url"),
		cols(nullTextColumn, "source_guid"),
		cols(timeColumn, "created_at")),
	table("saved_sermons", []string{"user_id", "sermon_id"},
		cols(textColumn, "user_id", "sermon_id"),
		cols(timeColumn, "created_at")),
	table("sermon_notes", byID,
		cols(textColumn, "id", "sermon_id", "user_id", "content"),
		cols(timeColumn, "updated_at")),
	table("events", byID,
		cols(textColumn, "id", "title"),
		cols(timeColumn, "starts_at"),
		cols(textColumn, "location", "description"),
		cols(timeColumn, "created_at")),
	table("meetings", byID,
		cols(textColumn, "id", "title", "host"),
		cols(timeColumn, "starts_at"),
		cols(textColumn, "description"),
		cols(intColumn, "participants"),
		cols(timeColumn, "created_at")),
	table("prayers", byID,
		cols(textColumn, "id", "name", "content", "status", "ai_response"),
		cols(intColumn, "prayer_count"),
		cols(timeColumn, "created_at")),
	table("slideshow_images", byID,
		cols(textColumn, "id", "url", "caption"),
		cols(timeColumn, "created_at")),
	table("church_branches", byID,
		cols(textColumn, "id", "name", "leader", "address"),
		cols(floatColumn, "lat", "lng", "radius"),
		cols(timeColumn, "created_at")),
	table("photo_albums", byID,
		cols(textColumn, "id", "title"),
		cols(timeColumn, "created_at")),
	table("photos", byID,
		cols(textColumn, "id", "album_id", "url", "caption"),
		cols(timeColumn, "created_at")),
	table("announcements", byID,
		cols(textColumn, "id", "message", "type"),
		cols(boolColumn, "is_active"),
		cols(timeColumn, "created_at")),
	table("resources", byID,
		cols(textColumn, "id", "title", "description", "category", "file_url"),
		cols(timeColumn, "created_at")),
	table("small_groups", byID,
		cols(textColumn, "id", "name", "leader", "topic", "description", "schedule", "location", "image_url"),
		cols(timeColumn, "created_at")),
	table("group_join_requests", byID,
		cols(textColumn, "id", "group_id", "user_id", "message"),
		cols(timeColumn, "created_at")),
	table("posts", byID,
		cols(textColumn, "id", "user_id", "content", "image_url"),
		cols(timeColumn, "created_at")),
	table("comments", byID,
		cols(textColumn, "id", "post_id", "user_id", "content"),
		cols(timeColumn, "created_at")),
	table("likes", byID,
		cols(textColumn, "id", "post_id", "user_id"),
		cols(timeColumn, "created_at")),
	table("notifications", byID,
		cols(textColumn, "id", "user_id", "message", "link_to_page", "link_to_id"),
		cols(boolColumn, "is_read"),
		cols(timeColumn, "created_at")),
	table("conversations", byID,
		cols(textColumn, "id"),
		cols(timeColumn, "created_at")),
	table("conversation_participants", []string{"conversation_id", "user_id"},
		cols(textColumn, "conversation_id", "user_id")),
	table("messages", byID,
		cols(textColumn, "id", "conversation_id", "sender_id", "content"),
		cols(timeColumn, "created_at")),
	table("connect_submissions", byID,
		cols(textColumn, "id", "name", "email", "phone", "type", "message"),
		cols(timeColumn, "created_at")),
	table("giving_records", byID,
		cols(textColumn, "id", "user_id"),
		cols(floatColumn, "amount"),
		cols(textColumn, "type", "method"),
		cols(timeColumn, "given_on", "created_at")),
	table("settings", []string{"setting_key"},
		cols(textColumn, "setting_key", "setting_value"),
		cols(timeColumn, "updated_at")),
}

func (t backupTable) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
		Tables:       make(map[string][]BackupRecord, len(backupTables)),
	}

	counts := make([]string, 0, len(backupTables))
	for _, t := range backupTables {
		records, err := s.exportTable(t)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", t.name, err)
		}
		backup.Tables[t.name] = records
		counts = append(counts, fmt.Sprintf("%d %s", len(records), t.name))
	}
	log.Printf("Exported: %s", strings.Join(counts, ", "))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

func (s *BackupService) exportTable(t backupTable) ([]BackupRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(t.columnNames(), ", "), t.name, strings.Join(t.keys, ", "))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []BackupRecord{}
	for rows.Next() {
		holders := make([]interface{}, len(t.columns))
		for i, c := range t.columns {
			holders[i] = newHolder(c.kind)
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		record := make(BackupRecord, len(t.columns))
		for i, c := range t.columns {
			record[c.name] = holderValue(holders[i])
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func newHolder(kind columnKind) interface{} {
	switch kind {
	case timeColumn:
		return &sql.NullTime{}
	case boolColumn:
		return &sql.NullBool{}
	case intColumn:
		return &sql.NullInt64{}
	case floatColumn:
		return &sql.NullFloat64{}
	default:
		return &sql.NullString{}
	}
}

func holderValue(holder interface{}) interface{} {
	switch h := holder.(type) {
	case *sql.NullTime:
		if h.Valid {
			return h.Time.UTC()
		}
	case *sql.NullBool:
		if h.Valid {
			return h.Bool
		}
	case *sql.NullInt64:
		if h.Valid {
			return h.Int64
		}
	case *sql.NullFloat64:
		if h.Valid {
			return h.Float64
		}
	case *sql.NullString:
		if h.Valid {
			return h.String
		}
	}
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader (for file uploads).
// Rows whose keys already exist are left untouched.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if !strings.HasPrefix(backup.Version, "2.") {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidBackup, backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		for _, t := range backupTables {
			if err := importTable(tx, t, backup.Tables[t.name]); err != nil {
				return fmt.Errorf("failed to import %s: %w", t.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Println("Database import completed successfully")
	return nil
}

func importTable(tx *database.Tx, t backupTable, records []BackupRecord) error {
	if len(records) == 0 {
		return nil
	}
	log.Printf("Importing %d %s...", len(records), t.name)

	query := tx.GetDialect().UpsertQuery(t.name, t.columnNames(), t.keys, nil)
	for i, record := range records {
		args := make([]interface{}, len(t.columns))
		for j, c := range t.columns {
			value, err := columnValue(c, record[c.name])
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			args[j] = value
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// columnValue converts a decoded JSON value back to the column's Go type
func columnValue(c backupColumn, raw interface{}) (interface{}, error) {
	if raw == nil {
		switch c.kind {
		case nullTextColumn:
			return nil, nil
		case textColumn:
			return "", nil
		case timeColumn:
			return time.Now().UTC(), nil
		case boolColumn:
			return false, nil
		default:
			return 0, nil
		}
	}

	switch c.kind {
	case textColumn, nullTextColumn:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected string, got %T", c.name, raw)
		}
		if s == "" && c.kind == nullTextColumn {
			return nil, nil
		}
		return s, nil
	case timeColumn:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected timestamp, got %T", c.name, raw)
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
		return parsed.UTC(), nil
	case boolColumn:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("column %s: expected bool, got %T", c.name, raw)
		}
		return b, nil
	case intColumn:
		n, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("column %s: expected number, got %T", c.name, raw)
		}
		return int64(n), nil
	case floatColumn:
		n, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("column %s: expected number, got %T", c.name, raw)
		}
		return n, nil
	}
	return nil, fmt.Errorf("column %s: unknown kind", c.name)
}

// Clear deletes every exported table's rows plus sessions, reset tokens and
// prayer markers, children first.
func (s *BackupService) Clear() error {
	tables := []string{"prayer_marks", "password_reset_tokens", "sessions"}
	for i := len(backupTables) - 1; i >= 0; i-- {
		tables = append(tables, backupTables[i].name)
	}

	for _, name := range tables {
		if _, err := s.db.Exec("DELETE FROM " + name); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", name, err)
		}
		log.Printf("Cleared table: %s", name)
	}
	return nil
}
