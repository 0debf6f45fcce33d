// Package storage defines the blob storage used to archive fetched pages.
package storage

import (
	"context"
	"fmt"
)

// Provider saves an object under a slash-separated name.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider discards every object. It backs the archive when
// scraping.archive_pages is off.
type NoOpProvider struct{}

// Save does nothing and always returns nil.
func (NoOpProvider) Save(context.Context, string, []byte) error {
	return nil
}

// PageObject names the archived reference page of a race.
func PageObject(year, round int) string {
	return fmt.Sprintf("pages/%d/%d.html", year, round)
}
