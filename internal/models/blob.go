package models

import "time"

// Blob is the content and metadata of one stored object.
type Blob struct {
	Bucket       string
	Name         string
	Content      []byte
	Size         int64
	LastModified time.Time
}
