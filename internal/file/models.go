package file

import "time"

// UploadResult describes an object stored by Service.Upload.
type UploadResult struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Elapsed     time.Duration
}

// Receipt is the JSON body returned for a successful upload.
type Receipt struct {
	Developer string `json:"Developer"`
	Status    string `json:"status"`
	Response  string `json:"response"`
	Type      string `json:"type"`
	MimeType  string `json:"mimetype"`
	FileSize  string `json:"file_size"`
	URL       string `json:"url_response"`
}

// Summary aggregates the bucket listing.
type Summary struct {
	TotalFiles int64 `json:"totalFiles"`
	TotalSize  int64 `json:"totalSize"`
}
