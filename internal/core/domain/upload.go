package domain

// UploadFile is one file received by the upload endpoint.
type UploadFile struct {
	Filename string
	MimeType string
	Data     []byte
}

type UploadedFile struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	FileType      string         `json:"file_type"`
	FileSize      int64          `json:"file_size"`
	Status        DocumentStatus `json:"status"`
	ChunksCreated int            `json:"chunks_created"`
	TextLength    int            `json:"text_length"`
}

type UploadReport struct {
	ProjectID     string         `json:"project_id"`
	Success       bool           `json:"success"`
	FilesUploaded int            `json:"files_uploaded"`
	Files         []UploadedFile `json:"files"`
	Errors        []string       `json:"errors,omitempty"`
}

type ClearReport struct {
	VectorsDeleted   int `json:"vectors_deleted"`
	DocumentsDeleted int `json:"documents_deleted"`
}
