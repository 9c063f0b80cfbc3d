package config

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Settings are stored as dotted keys, e.g. "engine.max_year" = "2100".
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider, creating the
// settings table if needed
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the settings table
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	settings, err := s.Settings()
	if err != nil {
		return nil, err
	}

	root, err := settingsNode(settings)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{}
	if err := root.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return config, nil
}

// Settings returns every stored key/value pair
func (s *SQLiteProvider) Settings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SetSetting stores a single dotted key
func (s *SQLiteProvider) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// SaveConfig replaces every stored setting with the flattened form of config
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	var root yaml.Node
	if err := root.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	settings := make(map[string]string)
	flattenNode(&root, "", settings)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for key, value := range settings {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to store setting %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// DeleteSetting removes a dotted key
func (s *SQLiteProvider) DeleteSetting(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// GetEngineConfig returns the engine section
func (s *SQLiteProvider) GetEngineConfig() (*EngineData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Engine, nil
}

// GetCacheConfig returns the cache section
func (s *SQLiteProvider) GetCacheConfig() (*CacheData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Cache, nil
}

// GetServerConfig returns the server section
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Server, nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// settingsNode turns dotted keys into a YAML mapping tree of untagged scalars,
// so values are typed by the fields they decode into
func settingsNode(settings map[string]string) (*yaml.Node, error) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		for i, part := range parts {
			if part == "" {
				return nil, fmt.Errorf("invalid setting key %q", key)
			}
			child := mappingChild(node, part)
			last := i == len(parts)-1
			switch {
			case child == nil && last:
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: part},
					&yaml.Node{Kind: yaml.ScalarNode, Value: settings[key]})
			case child == nil:
				child = &yaml.Node{Kind: yaml.MappingNode}
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, child)
				node = child
			case last || child.Kind != yaml.MappingNode:
				return nil, fmt.Errorf("setting %q conflicts with another key", key)
			default:
				node = child
			}
		}
	}
	return root, nil
}

func mappingChild(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// flattenNode is the inverse of settingsNode
func flattenNode(n *yaml.Node, prefix string, out map[string]string) {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			flattenNode(c, prefix, out)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			flattenNode(n.Content[i+1], key, out)
		}
	case yaml.ScalarNode:
		if prefix != "" {
			out[prefix] = n.Value
		}
	}
}
