package sniffer

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	MIME     string
	FileType models.FileType
}

type signature struct {
	match  func(head []byte) bool
	result Result
}

var signatures = []signature{
	{isJPEG, Result{"image/jpeg", models.FileTypeImage}},
	{prefix("\x89PNG\r\n\x1a\n"), Result{"image/png", models.FileTypeImage}},
	{anyPrefix("GIF87a", "GIF89a"), Result{"image/gif", models.FileTypeImage}},
	{riff("WEBP"), Result{"image/webp", models.FileTypeImage}},
	{prefix("BM"), Result{"image/bmp", models.FileTypeImage}},
	{isSVG, Result{"image/svg+xml", models.FileTypeImage}},
	{prefix("%PDF-"), Result{"application/pdf", models.FileTypePDF}},
	{prefix("{\\rtf"), Result{"application/rtf", models.FileTypeDoc}},
	{prefix("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1"), Result{"application/msword", models.FileTypeDoc}},
	{riff("WAVE"), Result{"audio/wav", models.FileTypeAudio}},
	{riff("AVI "), Result{"video/x-msvideo", models.FileTypeVideo}},
	{prefix("OggS"), Result{"audio/ogg", models.FileTypeAudio}},
	{prefix("fLaC"), Result{"audio/flac", models.FileTypeAudio}},
	{anyPrefix("ID3", "\xff\xfb", "\xff\xf3"), Result{"audio/mpeg", models.FileTypeAudio}},
	{prefix("\x1a\x45\xdf\xa3"), Result{"video/x-matroska", models.FileTypeVideo}},
	{isQuickTime, Result{"video/quicktime", models.FileTypeVideo}},
	{isMP4, Result{"video/mp4", models.FileTypeVideo}},
	{prefix("glTF"), Result{"model/gltf-binary", models.FileType3D}},
	{prefix("solid "), Result{"model/stl", models.FileType3D}},
}

// Detect reads up to 512 bytes and returns them together with the result so
// the caller can replay the head.
func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// ContentType picks the MIME type for an upload part: magic bytes first, then
// the file extension, then a generic binary type.
func ContentType(head []byte, fileName string) string {
	if result, err := DetectHead(head); err == nil {
		return result.MIME
	}
	if ext := models.Extension(fileName); ext != "" {
		if byExt := mime.TypeByExtension("." + ext); byExt != "" {
			if idx := strings.Index(byExt, ";"); idx >= 0 {
				return strings.TrimSpace(byExt[:idx])
			}
			return byExt
		}
	}
	return "application/octet-stream"
}

func prefix(magic string) func([]byte) bool {
	return func(head []byte) bool {
		return bytes.HasPrefix(head, []byte(magic))
	}
}

func anyPrefix(magics ...string) func([]byte) bool {
	return func(head []byte) bool {
		for _, m := range magics {
			if bytes.HasPrefix(head, []byte(m)) {
				return true
			}
		}
		return false
	}
}

func riff(form string) func([]byte) bool {
	return func(head []byte) bool {
		return len(head) >= 12 &&
			bytes.Equal(head[:4], []byte("RIFF")) &&
			bytes.Equal(head[8:12], []byte(form))
	}
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<svg")
}

func ftypBrand(head []byte) (string, bool) {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return "", false
	}
	return string(head[8:12]), true
}

func isQuickTime(head []byte) bool {
	brand, ok := ftypBrand(head)
	return ok && brand == "qt  "
}

func isMP4(head []byte) bool {
	brand, ok := ftypBrand(head)
	return ok && brand != "avif" && brand != "heic"
}
