package tasks

import (
	"encoding/json"
	"time"
)

// Item is the part of an upstream task the reminder logic reads and writes.
// The full upstream record is kept in Raw and never interpreted.
type Item struct {
	ID           string
	Title        string
	DueAt        time.Time
	LastNaggedAt time.Time // zero when the task was never nagged
	Tags         []string
	Raw          json.RawMessage
}

type wireItem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	DueDateTime  *time.Time `json:"dueDateTime"`
	LastNaggedAt *time.Time `json:"lastNaggedAt"`
	Categories   []string   `json:"categories"`
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = Item{
		ID:    w.ID,
		Title: w.Title,
		Tags:  w.Categories,
		Raw:   append(json.RawMessage(nil), data...),
	}
	if w.DueDateTime != nil {
		i.DueAt = *w.DueDateTime
	}
	if w.LastNaggedAt != nil {
		i.LastNaggedAt = *w.LastNaggedAt
	}
	return nil
}

// HasTag reports whether the item carries tag
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Patch is the bookkeeping written back after a reminder went out
type Patch struct {
	LastNaggedAt time.Time `json:"lastNaggedAt"`
	Tags         []string  `json:"categories"`
}

type itemPage struct {
	Value []Item `json:"value"`
}
