package board

import "errors"

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("issue not found")
	ErrSaveFailed      = errors.New("save failed")
	ErrSyncFailed      = errors.New("sync failed")
	ErrUploadFailed    = errors.New("image upload failed")
)
