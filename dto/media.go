package dto

type MediaUploadResponse struct {
	URL         string `json:"url"`
	ObjectName  string `json:"object_name"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

type PostImagesResponse struct {
	Images []MediaUploadResponse `json:"images"`
}
