package models

import (
	"path"
	"strings"
	"time"
)

type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypePDF   FileType = "pdf"
	FileTypeDoc   FileType = "doc"
	FileTypeAudio FileType = "audio"
	FileType3D    FileType = "3d"
	FileTypeOther FileType = "other"
)

var extensionTypes = map[string]FileType{
	"jpg": FileTypeImage, "jpeg": FileTypeImage, "png": FileTypeImage, "gif": FileTypeImage,
	"bmp": FileTypeImage, "webp": FileTypeImage, "svg": FileTypeImage,

	"mp4": FileTypeVideo, "avi": FileTypeVideo, "mov": FileTypeVideo, "wmv": FileTypeVideo,
	"flv": FileTypeVideo, "mkv": FileTypeVideo,

	"pdf": FileTypePDF,

	"doc": FileTypeDoc, "docx": FileTypeDoc, "txt": FileTypeDoc, "rtf": FileTypeDoc,

	"mp3": FileTypeAudio, "wav": FileTypeAudio, "ogg": FileTypeAudio, "flac": FileTypeAudio,

	"obj": FileType3D, "fbx": FileType3D, "gltf": FileType3D, "glb": FileType3D,
	"stl": FileType3D, "3ds": FileType3D, "dae": FileType3D, "blend": FileType3D,
}

// InferFileType classifies a file name by extension. The result is advisory;
// the server returns the authoritative file_type.
func InferFileType(fileName string) FileType {
	if t, ok := extensionTypes[Extension(fileName)]; ok {
		return t
	}
	return FileTypeOther
}

// Extension returns the lower-cased extension without the dot.
func Extension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
}

// TitleFromFileName strips the extension, as the upload screen does for the
// default title.
func TitleFromFileName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

type MetadataField struct {
	MetadataID string `json:"metadata_id"`
	FieldName  string `json:"field_name"`
	FieldValue string `json:"field_value"`
}

type Asset struct {
	AssetID        string          `json:"asset_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	File           string          `json:"file,omitempty"`
	FileURL        string          `json:"file_url,omitempty"`
	FileType       FileType        `json:"file_type"`
	FileSize       int64           `json:"file_size"`
	FileExtension  string          `json:"file_extension,omitempty"`
	MimeType       string          `json:"mime_type,omitempty"`
	Tags           []string        `json:"tags"`
	MetadataFields []MetadataField `json:"metadata_fields,omitempty"`
	User           *User           `json:"user,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (a Asset) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AssetPatch is a partial update. The file itself cannot be replaced after
// upload, so only title, description and tags are exposed.
type AssetPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (p AssetPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil
}

type AssetFilters struct {
	FileType FileType
	Tags     []string
	DateFrom *time.Time
	DateTo   *time.Time
}

func (f AssetFilters) Empty() bool {
	return f.FileType == "" && len(f.Tags) == 0 && f.DateFrom == nil && f.DateTo == nil
}

type AssetListParams struct {
	Page     int
	PageSize int
	Search   string
	Filters  AssetFilters
	Ordering string
}

// Page is the paginated envelope of list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Results  []T     `json:"results"`
}
