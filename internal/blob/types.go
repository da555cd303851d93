// Package blob exposes the blob storage abstraction and the environment
// driven driver selection used by the advisory report archive.
package blob

import "injectcore/internal/blob/core"

// Re-exported aliases so callers depend on this package only.
type (
	// Driver identifies a backend implementation.
	Driver = core.Driver
	// PutOptions specifies optional parameters for Put.
	PutOptions = core.PutOptions
	// Info describes a stored blob.
	Info = core.Info
	// Store is the storage abstraction.
	Store = core.Store
)

const (
	// DriverFilesystem selects the local filesystem backend.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 selects an S3 / MinIO compatible backend.
	DriverS3 = core.DriverS3
	// DriverMemory selects the in-memory backend.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = core.ErrUnsupported
