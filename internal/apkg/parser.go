// Package apkg reads Anki deck archives. An .apkg file is a ZIP
// container holding a collection database (collection.anki2, or
// collection.anki21 for newer exports), which is a plain SQLite file.
package apkg

import (
	"archive/zip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// collection database names, in preference order
var collectionNames = []string{"collection.anki2", "collection.anki21"}

// fieldSep separates note fields inside the collection database.
const fieldSep = "\x1f"

// Card is one note extracted from an archive: the first field is the
// front, the second the back.
type Card struct {
	Front string
	Back  string
}

// Deck is the parsed content of an .apkg archive.
type Deck struct {
	Name        string
	Description string
	Cards       []Card
}

// Parse extracts the deck stored in the .apkg file at path. The deck
// name is taken from the file name; Anki's own deck metadata is a JSON
// blob with per-client quirks and is not worth depending on.
func Parse(path string) (*Deck, error) {
	tmpDir, err := os.MkdirTemp("", "apkg-*")
	if err != nil {
		return nil, fmt.Errorf("apkg: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	collectionPath, err := extractCollection(path, tmpDir)
	if err != nil {
		return nil, err
	}

	cards, err := readCards(collectionPath)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return &Deck{
		Name:        name,
		Description: fmt.Sprintf("Imported from %s", base),
		Cards:       cards,
	}, nil
}

// extractCollection unzips only the collection database out of the
// archive; media files and everything else are skipped.
func extractCollection(path, dir string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("apkg: open archive: %w", err)
	}
	defer zr.Close()

	for _, want := range collectionNames {
		for _, f := range zr.File {
			if f.Name != want {
				continue
			}
			dst := filepath.Join(dir, want)
			if err := extractFile(f, dst); err != nil {
				return "", err
			}
			return dst, nil
		}
	}
	return "", fmt.Errorf("apkg: no collection database found in archive")
}

func extractFile(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("apkg: open %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("apkg: create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("apkg: extract %s: %w", f.Name, err)
	}
	return nil
}

// readCards joins cards to their notes and maps the first two note
// fields to front/back.
func readCards(collectionPath string) ([]Card, error) {
	db, err := sql.Open("sqlite3", collectionPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("apkg: open collection: %w", err)
	}
	defer db.Close()

	notes := map[int64]string{}
	rows, err := db.Query(`SELECT id, flds FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("apkg: read notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var fields string
		if err := rows.Scan(&id, &fields); err != nil {
			return nil, fmt.Errorf("apkg: scan note: %w", err)
		}
		notes[id] = fields
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("apkg: read notes: %w", err)
	}

	cardRows, err := db.Query(`SELECT nid FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("apkg: read cards: %w", err)
	}
	defer cardRows.Close()

	var cards []Card
	for cardRows.Next() {
		var noteID int64
		if err := cardRows.Scan(&noteID); err != nil {
			return nil, fmt.Errorf("apkg: scan card: %w", err)
		}
		flds, ok := notes[noteID]
		if !ok {
			continue
		}

		fields := strings.Split(flds, fieldSep)
		var front, back string
		if len(fields) > 0 {
			front = CleanHTML(fields[0])
		}
		if len(fields) > 1 {
			back = CleanHTML(fields[1])
		}
		cards = append(cards, Card{Front: front, Back: back})
	}
	return cards, cardRows.Err()
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips markup from a note field: tags removed, the common
// entities decoded, surrounding whitespace trimmed.
func CleanHTML(text string) string {
	text = tagRe.ReplaceAllString(text, "")
	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
	)
	return strings.TrimSpace(replacer.Replace(text))
}
