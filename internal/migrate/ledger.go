package migrate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LedgerFile is the upload ledger's name inside the data directory.
const LedgerFile = "asset-uploads.jsonl"

// LedgerEntry records one completed image upload.
type LedgerEntry struct {
	URL       string    `json:"url"`      // source image URL
	Filename  string    `json:"filename"` // stored filename
	AssetID   string    `json:"asset_id"` // store asset document id
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is a JSONL append-only upload log.
type Ledger struct {
	path string

	once  sync.Once
	index map[string]string
	err   error
}

// DefaultLedgerPath returns the ledger path inside dataDir.
func DefaultLedgerPath(dataDir string) string {
	return filepath.Join(dataDir, LedgerFile)
}

// OpenLedger opens (or creates) the ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	return &Ledger{path: path}, nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Append adds an entry to the ledger.
func (l *Ledger) Append(e LedgerEntry) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	e.Timestamp = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(data))
	return err
}

// Entries returns all ledger entries. Malformed lines are skipped.
func (l *Ledger) Entries() ([]LedgerEntry, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []LedgerEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LedgerEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// Lookup returns the most recent asset id recorded for url. The ledger is
// read once per Ledger value; an unreadable ledger behaves as empty.
func (l *Ledger) Lookup(url string) (string, bool) {
	l.once.Do(l.load)
	id, ok := l.index[url]
	return id, ok && id != ""
}

// Record appends an upload and makes it visible to Lookup.
func (l *Ledger) Record(url, filename, assetID string) error {
	l.once.Do(l.load)
	if err := l.Append(LedgerEntry{URL: url, Filename: filename, AssetID: assetID}); err != nil {
		return err
	}
	l.index[url] = assetID
	return nil
}

// Err reports a failure to read the ledger during the first Lookup.
func (l *Ledger) Err() error {
	return l.err
}

func (l *Ledger) load() {
	l.index = make(map[string]string)
	entries, err := l.Entries()
	if err != nil {
		l.err = err
		return
	}
	for _, e := range entries {
		l.index[e.URL] = e.AssetID
	}
}
