package models

// UploadRequest asks for a presigned upload URL.
type UploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=200"`
	ContentType string `json:"contentType" validate:"required"`
	Size        int64  `json:"size" validate:"min=1"`
	IsImage     bool   `json:"isImage"`
}

// UploadResponse is the presigned URL and the object key the client uploads to.
type UploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	Method    string `json:"method"`
	ExpiresAt string `json:"expiresAt"`
}

// DeleteObjectRequest names the object to remove.
type DeleteObjectRequest struct {
	Key string `json:"key"`
}
