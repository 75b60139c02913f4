// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog indexes the known cards and their images in an in-memory
// SQLite database. The database lives for one invocation and is rebuilt
// from an image folder and/or a YAML card list every run.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"
)

// Card is one catalog entry.
type Card struct {
	// Key is the image lookup key, e.g. "ansong1".
	Key string `json:"key" yaml:"key"`

	// Name is the display name. Keys indexed from image files use the key.
	Name string `json:"name" yaml:"name"`

	// Base is Key without its crypt group suffix.
	Base string `json:"base" yaml:"base"`

	// Group is the crypt group 1..7, or 0 when none applies.
	Group int `json:"group,omitempty" yaml:"group,omitempty"`

	// Section is crypt, library, or empty when unknown.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Image is the path of the card image, if one is known.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

var groupKey = regexp.MustCompile(`^(.+)g([1-7])$`)

// splitGroup returns the base key and group of a key ending in g1..g7.
func splitGroup(key string) (string, int) {
	m := groupKey.FindStringSubmatch(key)
	if m == nil {
		return key, 0
	}
	return m[1], int(m[2][0] - '0')
}

// Catalog is the in-memory card index.
type Catalog struct {
	db     *sql.DB
	fts    bool
	logger *slog.Logger
}

// Open creates an empty catalog. logger may be nil.
func Open(logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	// Every connection to :memory: is a separate database, so the pool is
	// pinned to a single connection that is never recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &Catalog{db: db, logger: logger}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return c, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE cards (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			base TEXT NOT NULL,
			grp INTEGER NOT NULL DEFAULT 0,
			section TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX idx_cards_base ON cards(base)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 is only compiled in with the sqlite_fts5 build tag. Without it,
	// suggestions fall back to LIKE matching.
	if _, err := c.db.Exec(`CREATE VIRTUAL TABLE cards_fts USING fts5(key UNINDEXED, name)`); err != nil {
		c.logger.Debug("catalog.fts.unavailable", "error", err)
		return nil
	}
	c.fts = true
	return nil
}

// Put inserts or replaces a card. Empty fields of an existing card are
// kept, so an image folder and a card list can describe the same card.
func (c *Catalog) Put(ctx context.Context, card Card) error {
	if card.Key == "" {
		return errors.New("card key is empty")
	}
	if card.Name == "" {
		card.Name = card.Key
	}
	if card.Base == "" {
		card.Base, card.Group = splitGroup(card.Key)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cards (key, name, base, grp, section, image) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = CASE WHEN excluded.name != excluded.key THEN excluded.name ELSE cards.name END,
			grp = CASE WHEN excluded.grp != 0 THEN excluded.grp ELSE cards.grp END,
			section = CASE WHEN excluded.section != '' THEN excluded.section ELSE cards.section END,
			image = CASE WHEN excluded.image != '' THEN excluded.image ELSE cards.image END`,
		card.Key, card.Name, card.Base, card.Group, card.Section, card.Image)
	if err != nil {
		return fmt.Errorf("inserting card %s: %w", card.Key, err)
	}

	if c.fts {
		var name string
		if err := tx.QueryRowContext(ctx, `SELECT name FROM cards WHERE key = ?`, card.Key).Scan(&name); err != nil {
			return fmt.Errorf("reading card %s: %w", card.Key, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards_fts WHERE key = ?`, card.Key); err != nil {
			return fmt.Errorf("updating search index: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO cards_fts (key, name) VALUES (?, ?)`, card.Key, name); err != nil {
			return fmt.Errorf("updating search index: %w", err)
		}
	}
	return tx.Commit()
}

// Lookup returns the card stored under key.
func (c *Catalog) Lookup(key string) (Card, bool, error) {
	var card Card
	err := c.db.QueryRow(
		`SELECT key, name, base, grp, section, image FROM cards WHERE key = ?`, key,
	).Scan(&card.Key, &card.Name, &card.Base, &card.Group, &card.Section, &card.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, false, nil
	}
	if err != nil {
		return Card{}, false, fmt.Errorf("looking up %s: %w", key, err)
	}
	return card, true, nil
}

// Has reports whether key is in the catalog. Lookup errors are logged and
// read as absent.
func (c *Catalog) Has(key string) bool {
	_, ok, err := c.Lookup(key)
	if err != nil {
		c.logger.Warn("catalog.lookup.failed", "key", key, "error", err)
		return false
	}
	return ok
}

// Image returns the image path stored for key.
func (c *Catalog) Image(key string) (string, bool) {
	card, ok, err := c.Lookup(key)
	if err != nil {
		c.logger.Warn("catalog.lookup.failed", "key", key, "error", err)
		return "", false
	}
	if !ok || card.Image == "" {
		return "", false
	}
	return card.Image, true
}

// Groups returns the crypt groups stored for a base key, ascending.
func (c *Catalog) Groups(base string) ([]int, error) {
	rows, err := c.db.Query(`SELECT grp FROM cards WHERE base = ? AND grp > 0 ORDER BY grp`, base)
	if err != nil {
		return nil, fmt.Errorf("listing groups of %s: %w", base, err)
	}
	defer rows.Close()

	var groups []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	var n int
	if err := c.db.QueryRow(`SELECT count(*) FROM cards`).Scan(&n); err != nil {
		c.logger.Warn("catalog.count.failed", "error", err)
		return 0
	}
	return n
}

// Search returns up to limit cards whose name matches every word of query
// as a prefix, best matches first.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]Card, error) {
	words := searchWords(query)
	if len(words) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var (
		rows *sql.Rows
		err  error
	)
	if c.fts {
		match := make([]string, len(words))
		for i, w := range words {
			match[i] = `"` + w + `"*`
		}
		rows, err = c.db.QueryContext(ctx,
			`SELECT c.key, c.name, c.base, c.grp, c.section, c.image
			FROM cards_fts f JOIN cards c ON c.key = f.key
			WHERE cards_fts MATCH ?
			ORDER BY f.rank, c.key
			LIMIT ?`,
			strings.Join(match, " "), limit)
	} else {
		var qb strings.Builder
		qb.WriteString(`SELECT key, name, base, grp, section, image FROM cards WHERE 1=1`)
		args := make([]any, 0, len(words)+1)
		for _, w := range words {
			qb.WriteString(` AND (lower(name) LIKE ? OR key LIKE ?)`)
			args = append(args, "%"+w+"%", "%"+w+"%")
		}
		qb.WriteString(` ORDER BY length(name), key LIMIT ?`)
		args = append(args, limit)
		rows, err = c.db.QueryContext(ctx, qb.String(), args...)
	}
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var card Card
		if err := rows.Scan(&card.Key, &card.Name, &card.Base, &card.Group, &card.Section, &card.Image); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Suggest returns the name of the best search match for name. When the
// whole name matches nothing, single words are tried, longest first, then
// shorter prefixes of the longest word.
func (c *Catalog) Suggest(name string) (string, bool) {
	words := searchWords(name)
	if len(words) == 0 {
		return "", false
	}
	queries := []string{strings.Join(words, " ")}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > 1 {
		queries = append(queries, words...)
	}
	longest := []rune(words[0])
	for n := len(longest) - 1; n >= 4; n-- {
		queries = append(queries, string(longest[:n]))
	}

	for _, q := range queries {
		cards, err := c.Search(context.Background(), q, 1)
		if err != nil {
			c.logger.Warn("catalog.suggest.failed", "name", name, "error", err)
			return "", false
		}
		if len(cards) > 0 {
			return cards[0].Name, true
		}
	}
	return "", false
}

// searchWords splits a query into lowercase alphanumeric words, which keeps
// FTS5 query syntax out of user input.
func searchWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
