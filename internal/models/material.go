package models

import (
	"path"
	"strings"
	"time"
)

// MaterialCategory classifies a study material by its file kind.
type MaterialCategory string

const (
	MaterialCategoryPDF          MaterialCategory = "PDF"
	MaterialCategoryVideo        MaterialCategory = "VIDEO"
	MaterialCategoryArticle      MaterialCategory = "ARTICLE"
	MaterialCategoryPresentation MaterialCategory = "PRESENTATION"
	MaterialCategoryDocument     MaterialCategory = "DOCUMENT"
	MaterialCategorySpreadsheet  MaterialCategory = "SPREADSHEET"
	MaterialCategoryImage        MaterialCategory = "IMAGE"
	MaterialCategoryAudio        MaterialCategory = "AUDIO"
	MaterialCategoryCompressed   MaterialCategory = "COMPRESSED"
	MaterialCategoryOther        MaterialCategory = "OTHER"
)

var materialCategories = map[MaterialCategory]struct{}{
	MaterialCategoryPDF:          {},
	MaterialCategoryVideo:        {},
	MaterialCategoryArticle:      {},
	MaterialCategoryPresentation: {},
	MaterialCategoryDocument:     {},
	MaterialCategorySpreadsheet:  {},
	MaterialCategoryImage:        {},
	MaterialCategoryAudio:        {},
	MaterialCategoryCompressed:   {},
	MaterialCategoryOther:        {},
}

// Valid reports whether the category belongs to the closed enum.
func (c MaterialCategory) Valid() bool {
	_, ok := materialCategories[c]
	return ok
}

var categoryByExtension = map[string]MaterialCategory{
	".pdf": MaterialCategoryPDF,
	".mp4": MaterialCategoryVideo, ".avi": MaterialCategoryVideo, ".mkv": MaterialCategoryVideo,
	".mov": MaterialCategoryVideo, ".wmv": MaterialCategoryVideo,
	".ppt": MaterialCategoryPresentation, ".pptx": MaterialCategoryPresentation, ".odp": MaterialCategoryPresentation,
	".doc": MaterialCategoryDocument, ".docx": MaterialCategoryDocument, ".odt": MaterialCategoryDocument,
	".rtf": MaterialCategoryDocument,
	".xls": MaterialCategorySpreadsheet, ".xlsx": MaterialCategorySpreadsheet, ".ods": MaterialCategorySpreadsheet,
	".csv": MaterialCategorySpreadsheet,
	".jpg": MaterialCategoryImage, ".jpeg": MaterialCategoryImage, ".png": MaterialCategoryImage,
	".gif": MaterialCategoryImage, ".bmp": MaterialCategoryImage, ".svg": MaterialCategoryImage,
	".webp": MaterialCategoryImage,
	".mp3":  MaterialCategoryAudio, ".wav": MaterialCategoryAudio, ".ogg": MaterialCategoryAudio,
	".flac": MaterialCategoryAudio, ".aac": MaterialCategoryAudio,
	".zip": MaterialCategoryCompressed, ".rar": MaterialCategoryCompressed, ".7z": MaterialCategoryCompressed,
	".tar": MaterialCategoryCompressed, ".gz": MaterialCategoryCompressed,
	".txt": MaterialCategoryArticle, ".md": MaterialCategoryArticle, ".html": MaterialCategoryArticle,
}

// CategoryFromFilename derives the category from a filename or URL extension,
// defaulting to OTHER.
func CategoryFromFilename(filename string) MaterialCategory {
	ext := strings.ToLower(path.Ext(filename))
	if c, ok := categoryByExtension[ext]; ok {
		return c
	}
	return MaterialCategoryOther
}

// Material is study-material metadata. The file itself lives behind FileURL;
// the portal stores no file contents.
type Material struct {
	ID          string           `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	Category    MaterialCategory `db:"category" json:"category"`
	FileURL     string           `db:"file_url" json:"file_url"`
	FileSize    *int64           `db:"file_size" json:"file_size,omitempty"`
	ContentType *string          `db:"content_type" json:"content_type,omitempty"`
	UploadedBy  string           `db:"uploaded_by" json:"uploaded_by"`
	CourseID    *string          `db:"course_id" json:"course_id,omitempty"`
	Downloads   int64            `db:"downloads" json:"downloads"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// MaterialRequest creates or edits material metadata. An empty category is
// derived from the file URL extension.
type MaterialRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category,omitempty"`
	FileURL     string  `json:"file_url" validate:"required,url"`
	FileSize    *int64  `json:"file_size,omitempty"`
	ContentType *string `json:"content_type,omitempty"`
	CourseID    *string `json:"course_id,omitempty"`
}

// MaterialDetail joins a material with uploader and course names.
type MaterialDetail struct {
	Material
	UploaderName string  `db:"uploader_name" json:"uploader_name"`
	CourseName   *string `db:"course_name" json:"course_name,omitempty"`
}
