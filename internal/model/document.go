package model

// FileType is the declared format of an uploaded document.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDocx FileType = "docx"
	FileTypeDoc  FileType = "doc"
	FileTypeTxt  FileType = "txt"
	FileTypeMd   FileType = "md"
)

func ParseFileType(s string) (FileType, bool) {
	switch FileType(s) {
	case FileTypePDF, FileTypeDocx, FileTypeDoc, FileTypeTxt, FileTypeMd:
		return FileType(s), true
	}
	return "", false
}

type Document struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	StorageKey string `json:"storage_key"`
	ChunkCount int    `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}
