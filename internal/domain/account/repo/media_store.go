package repo

import "context"

// MediaStore is the media-hosting port. Upload takes a staged local file,
// pushes it to the hosting service and returns its public URL. The local
// file is removed in every outcome.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (url string, err error)

	// Delete removes a previously uploaded object by its public URL. Used as
	// the compensating action when a persist step fails after an upload.
	Delete(ctx context.Context, url string) error
}
