package domain

import "time"

// DocumentRecord is the relational bookkeeping entry for one ingested file.
// The vector collection holds the chunks; this record tracks the upload.
type DocumentRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// Title is the caller-supplied display title.
	Title string

	// FileName is the stored file name, unique per upload.
	FileName string

	// FileType is the lower-cased extension without the dot.
	FileType string

	// UploadDate is when ingestion completed.
	UploadDate time.Time

	// ChunkCount is the number of chunks indexed for this file.
	ChunkCount int
}

// QueryRecord is one entry in the query history log.
type QueryRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// QueryText is the user's query.
	QueryText string

	// ResponseText is the generated answer.
	ResponseText string

	// CreatedAt is when the query was answered.
	CreatedAt time.Time

	// DocumentIDs are the document records whose chunks were retrieved
	// for this query.
	DocumentIDs []string
}
