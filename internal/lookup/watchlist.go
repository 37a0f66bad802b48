package lookup

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type watchlistFile struct {
	Watchlist []struct {
		Symbol string `yaml:"symbol"`
	} `yaml:"watchlist"`
}

// LoadWatchlist reads a YAML watchlist of the form
//
//	watchlist:
//	  - symbol: SPY
//	  - symbol: tsla
//
// Symbols are normalized and de-duplicated in file order. Invalid symbols are
// an error so a typo is not silently skipped.
func LoadWatchlist(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "watchlist: read %s", path)
	}
	var wf watchlistFile
	if err := yaml.Unmarshal(b, &wf); err != nil {
		return nil, eris.Wrapf(err, "watchlist: parse %s", path)
	}

	seen := make(map[string]struct{}, len(wf.Watchlist))
	out := make([]string, 0, len(wf.Watchlist))
	for _, it := range wf.Watchlist {
		if strings.TrimSpace(it.Symbol) == "" {
			continue
		}
		s, err := NormalizeTicker(it.Symbol)
		if err != nil {
			return nil, eris.Wrap(err, "watchlist")
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, eris.Errorf("watchlist: no symbols found in %s", path)
	}
	return out, nil
}
