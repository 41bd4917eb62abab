// Package sources maps article links to the publication they came from.
package sources

import (
	"log"
	"strings"

	"github.com/rsharma/newswatch/internal/storage"
)

// Rule matches a publisher by a substring of the article link.
type Rule struct {
	Substring string
	Code      string
	Name      string
	Homepage  string
}

// Rules are checked in order; the first match wins. Unknown links fall
// through to Other.
var Rules = []Rule{
	{"economictimes", "ET", "Economic Times", "https://economictimes.indiatimes.com"},
	{"timesofindia", "TOI", "Times of India", "https://timesofindia.indiatimes.com"},
	{"thehindu", "TH", "The Hindu", "https://www.thehindu.com"},
	{"moneycontrol", "MC", "MoneyControl", "https://www.moneycontrol.com"},
	{"business-standard", "BS", "Business Standard", "https://www.business-standard.com"},
	{"livemint", "MINT", "Live Mint", "https://www.livemint.com"},
	{"cnbctv18", "CNBC", "CNBC TV18", "https://www.cnbctv18.com"},
}

// Other is the catch-all for links no rule matches.
var Other = Rule{Code: "OTHER", Name: "Other Source", Homepage: ""}

// Classify returns the publisher rule for an article link. Matching is
// case-insensitive on the whole link, not just the host.
func Classify(link string) Rule {
	lower := strings.ToLower(link)
	for _, r := range Rules {
		if strings.Contains(lower, r.Substring) {
			return r
		}
	}
	return Other
}

// SourceStore is the slice of storage the resolver needs.
type SourceStore interface {
	GetOrCreateSource(code, name, homepage string) (*storage.Source, error)
}

// Resolve classifies the link and returns the persisted source row for it.
// Classification failures must never block ingestion, so any storage error
// is logged and the Other source is returned instead; the error surfaces
// only if Other itself cannot be stored.
func Resolve(store SourceStore, link string) (*storage.Source, error) {
	rule := Classify(link)
	src, err := store.GetOrCreateSource(rule.Code, rule.Name, rule.Homepage)
	if err == nil {
		return src, nil
	}
	if rule.Code != Other.Code {
		log.Printf("newswatch: failed to resolve source %s for %s: %v", rule.Code, link, err)
		return store.GetOrCreateSource(Other.Code, Other.Name, Other.Homepage)
	}
	return nil, err
}
