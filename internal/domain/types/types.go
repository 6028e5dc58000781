// Package types contains common types used across the application.
package types

// Stats is the service snapshot served by /stats.
type Stats struct {
	Started     bool   `json:"started"`
	Classifier  string `json:"classifier"`
	Profile     string `json:"level_profile"`
	TopEmotions int    `json:"top_emotions"`

	Requests int64 `json:"requests"`
	Served   int64 `json:"served"`
	Warnings int64 `json:"warnings"`
	Invalid  int64 `json:"invalid"`
	Failures int64 `json:"failures"`

	CacheSize   int64 `json:"cache_size"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	Journal *JournalStats `json:"journal,omitempty"`
}

// JournalStats describes the optional journal.
type JournalStats struct {
	Backend     string `json:"backend"`
	QueueLength int    `json:"queue_length"`
	Written     int64  `json:"written"`
	Dropped     int64  `json:"dropped"`
	Entries     int    `json:"entries"`
}

// HitRatio returns the share of classifications served from the cache.
func (s Stats) HitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}
