package model

import "time"

// Item is a named kind of stock; transfers carry quantities of it.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImageMime string    `json:"image_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasImage reports whether a photo was uploaded for the item.
func (i *Item) HasImage() bool {
	return i.ImageMime != ""
}
