package insight

import (
	"sort"
	"strings"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// CO-OCCURRENCE MINER — items that share a basket
// ============================================================================
// Basket = all records with the same session key.
// Each basket contributes once per unordered pair of its distinct items.
// Pair identity is canonical (smaller item first), so (X,Y) and (Y,X) are
// the same pair.
// ============================================================================

const pairSep = "\x1f"

// CoOccurrencePair is an unordered item pair with its basket frequency.
// ItemA <= ItemB.
type CoOccurrencePair struct {
	ItemA     string `json:"itemA"`
	ItemB     string `json:"itemB"`
	Frequency int    `json:"frequency"`
}

// MineCoOccurrence counts, for each pair of items, how many baskets contain
// both. Returns the topN most frequent pairs (ties in first-encountered
// order); topN <= 0 returns every pair.
func MineCoOccurrence(rs *recordset.RecordSet, sessionKeyField, itemField string, topN int) []CoOccurrencePair {
	baskets := buildBaskets(rs, sessionKeyField, itemField)

	counts := make(map[string]int)
	var order []string
	for _, items := range baskets {
		if len(items) < 2 {
			continue
		}
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				key := pairKey(items[i], items[j])
				if _, seen := counts[key]; !seen {
					order = append(order, key)
				}
				counts[key]++
			}
		}
	}

	pairs := make([]CoOccurrencePair, 0, len(order))
	for _, key := range order {
		a, b, _ := strings.Cut(key, pairSep)
		pairs = append(pairs, CoOccurrencePair{ItemA: a, ItemB: b, Frequency: counts[key]})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Frequency > pairs[j].Frequency
	})
	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs
}

// buildBaskets groups distinct non-empty items by session key, keeping
// first-seen order for both baskets and items. Records without a session
// key belong to no basket.
func buildBaskets(rs *recordset.RecordSet, sessionKeyField, itemField string) [][]string {
	index := make(map[string]int)
	var baskets [][]string
	var seen []map[string]bool

	for i := 0; i < rs.Len(); i++ {
		session := rs.String(i, sessionKeyField)
		item := rs.String(i, itemField)
		if session == "" || item == "" {
			continue
		}
		b, ok := index[session]
		if !ok {
			b = len(baskets)
			index[session] = b
			baskets = append(baskets, nil)
			seen = append(seen, make(map[string]bool))
		}
		if seen[b][item] {
			continue
		}
		seen[b][item] = true
		baskets[b] = append(baskets[b], item)
	}
	return baskets
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairSep + b
}
