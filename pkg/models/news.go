package models

import "time"

// NewsItem is one IPO-related headline from an RSS feed.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}
