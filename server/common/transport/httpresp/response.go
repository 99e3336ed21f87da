package httpresp

const (
	ErrMissingBearerToken = "bearer token is required"
	ErrInvalidToken       = "invalid token"
	ErrNoFileProvided     = "multipart field 'file' is required"
	ErrFileTooLarge       = "file exceeds the maximum allowed size"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type UploadResponse struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

type StatsResponse struct {
	TotalUploads int64 `json:"total_uploads"`
	TotalBytes   int64 `json:"total_bytes"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

func NewStatusResponse(status string) StatusResponse {
	return StatusResponse{Status: status}
}

func NewUploadResponse(fileID, url string) UploadResponse {
	return UploadResponse{FileID: fileID, URL: url}
}
