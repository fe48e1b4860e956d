package config

const (
	// MaxNodeNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxNodeNameLength = 255

	// MaxCollectionNameLength is the maximum length for collection names.
	MaxCollectionNameLength = 255

	// MaxImportPathLength is the maximum length of one relative path in an import.
	MaxImportPathLength = 1024

	// MaxImportPathDepth is the maximum number of segments of one import path.
	MaxImportPathDepth = 64

	// WordsPerMinute is the reading speed used for reading-time estimates.
	WordsPerMinute = 225
)
