// Package feeds fetches Indian financial news RSS feeds and searches their
// entries for keywords.
package feeds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed registry, grouped by publisher.

var TimesOfIndiaFeeds = map[string]string{
	"recent":   "https://timesofindia.indiatimes.com/rssfeedmostrecent.cms",
	"india":    "https://timesofindia.indiatimes.com/rssfeeds/-2128936835.cms",
	"world":    "http://timesofindia.indiatimes.com/rssfeeds/296589292.cms",
	"business": "http://timesofindia.indiatimes.com/rssfeeds/1898055.cms",
	"tech":     "http://timesofindia.indiatimes.com/rssfeeds/66949542.cms",
}

var EconomicTimesFeeds = map[string]string{
	"top_stories":          "https://cfo.economictimes.indiatimes.com/rss/topstories",
	"recent":               "https://cfo.economictimes.indiatimes.com/rss/recentstories",
	"tax_legal_accounting": "https://cfo.economictimes.indiatimes.com/rss/tax-legal-accounting",
	"corp_finance":         "https://cfo.economictimes.indiatimes.com/rss/corporate-finance",
	"economy":              "https://cfo.economictimes.indiatimes.com/rss/economy",
	"govt_risk":            "https://cfo.economictimes.indiatimes.com/rss/governance-risk-compliance",
	"markets":              "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms",
	"stocks":               "https://economictimes.indiatimes.com/markets/stocks/rssfeeds/2146842.cms",
}

var TheHinduFeeds = map[string]string{
	"economy":       "https://www.thehindu.com/business/Economy/feeder/default.rss",
	"markets":       "https://www.thehindu.com/business/markets/feeder/default.rss",
	"budget":        "https://www.thehindu.com/business/budget/feeder/default.rss",
	"agri_business": "https://www.thehindu.com/business/agri-business/feeder/default.rss",
	"industry":      "https://www.thehindu.com/business/Industry/feeder/default.rss",
}

var MoneyControlFeeds = map[string]string{
	"news":    "https://www.moneycontrol.com/rss/latestnews.xml",
	"markets": "https://www.moneycontrol.com/rss/marketreports.xml",
	"results": "https://www.moneycontrol.com/rss/results.xml",
	"ipo":     "https://www.moneycontrol.com/rss/ipo.xml",
}

var BusinessStandardFeeds = map[string]string{
	"companies": "https://www.business-standard.com/rss/companies-101.rss",
	"markets":   "https://www.business-standard.com/rss/markets-102.rss",
	"finance":   "https://www.business-standard.com/rss/finance-103.rss",
	"economy":   "https://www.business-standard.com/rss/economy-policy-104.rss",
}

var LiveMintFeeds = map[string]string{
	"news":      "https://www.livemint.com/rss/news",
	"markets":   "https://www.livemint.com/rss/markets",
	"companies": "https://www.livemint.com/rss/companies",
	"money":     "https://www.livemint.com/rss/money",
}

var CNBCTV18Feeds = map[string]string{
	"market":   "https://www.cnbctv18.com/rss/market.xml",
	"business": "https://www.cnbctv18.com/rss/business.xml",
}

// AllFeeds returns every registered feed URL.
func AllFeeds() []string {
	groups := []map[string]string{
		TheHinduFeeds,
		EconomicTimesFeeds,
		TimesOfIndiaFeeds,
		MoneyControlFeeds,
		BusinessStandardFeeds,
		LiveMintFeeds,
		CNBCTV18Feeds,
	}
	var urls []string
	for _, g := range groups {
		for _, url := range g {
			urls = append(urls, url)
		}
	}
	return urls
}

// FeedsFile is the on-disk override for the built-in registry.
type FeedsFile struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads feed URLs from a YAML file. An empty path or an empty
// feeds list falls back to the built-in registry.
func LoadFeeds(path string) ([]string, error) {
	if path == "" {
		return AllFeeds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}
	var file FeedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file %s: %w", path, err)
	}
	if len(file.Feeds) == 0 {
		return AllFeeds(), nil
	}
	return file.Feeds, nil
}
