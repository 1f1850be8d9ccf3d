package holiday

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/afero"
)

const lastUpdateKey = "last_update"

type yearEntry struct {
	Data map[string]bool `json:"data"`
}

// cacheFile mirrors the on-disk layout: year keys next to a top-level
// last_update timestamp.
type cacheFile struct {
	years      map[int]yearEntry
	lastUpdate time.Time
}

func newCacheFile() cacheFile {
	return cacheFile{years: make(map[int]yearEntry)}
}

func readCache(fs afero.Fs, path string) (cacheFile, error) {
	out := newCacheFile()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("read holiday cache: %w", err)
	}
	if len(data) == 0 {
		return out, nil
	}

	var raw map[string]sonic.NoCopyRawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("decode holiday cache: %w", err)
	}

	for key, val := range raw {
		if key == lastUpdateKey {
			var ts string
			if err := sonic.Unmarshal(val, &ts); err != nil {
				return out, fmt.Errorf("decode %s: %w", lastUpdateKey, err)
			}
			out.lastUpdate, _ = parseTimestamp(ts)
			continue
		}
		year, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var entry yearEntry
		if err := sonic.Unmarshal(val, &entry); err != nil {
			continue
		}
		if entry.Data == nil {
			entry.Data = map[string]bool{}
		}
		out.years[year] = entry
	}
	return out, nil
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO form older cache
// files were written with.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999", s, time.Local)
}

func writeCache(fs afero.Fs, path string, c cacheFile) error {
	doc := make(map[string]any, len(c.years)+1)
	for year, entry := range c.years {
		doc[strconv.Itoa(year)] = entry
	}
	doc[lastUpdateKey] = c.lastUpdate.Format(time.RFC3339)

	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode holiday cache: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create holiday cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write holiday cache: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("rename holiday cache: %w", err)
	}
	return nil
}
