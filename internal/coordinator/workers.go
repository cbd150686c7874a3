package coordinator

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/entry"
)

// UploadResult is what an Uploader worker returns (spec.md §4.5).
type UploadResult struct {
	Success            bool
	Message            string
	Changeset          entry.Changeset
	Count              map[string]int
	Stats              map[string]int
	FormattedChangeset []string
	HasChanges         bool
}

// Uploader is the C5 worker the coordinator spawns for the "upload"
// operation. Upload always performs the full diff-and-changeset build;
// CheckOnly performs the same diff without handing back an applicable
// changeset (spec.md §4.5's check_only mode).
type Uploader interface {
	Upload(ctx context.Context, options map[string]any) (*UploadResult, error)
	CheckOnly(ctx context.Context, options map[string]any) (*UploadResult, error)
}

// DownloadResult is what a Downloader worker returns (spec.md §4.6 step 7).
type DownloadResult struct {
	Success bool
	Message string
	Stats   map[string]int
}

// Downloader is the C6 worker the coordinator spawns for the "download"
// operation.
type Downloader interface {
	Download(ctx context.Context, options map[string]any) (*DownloadResult, error)
}

// Relay is the C8 event relay: the coordinator calls Publish whenever it
// observes old_version != new_version after a successful apply.
type Relay interface {
	Publish(ctx context.Context, oldVersion, newVersion string)
}
