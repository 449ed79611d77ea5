package preview

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gokuthong/ShelfLife-DAM/internal/media/sniffer"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported model format")

// Parse decodes a model file picked by its extension.
func Parse(fileName string, data []byte) (*Scene, error) {
	ext := models.Extension(fileName)

	if kind, err := sniffer.DetectHead(data); err == nil && kind.FileType != models.FileType3D {
		return nil, fmt.Errorf("%s content is %s", fileName, kind.MIME)
	}

	switch ext {
	case "obj":
		return parseOBJ(bytes.NewReader(data))
	case "stl":
		return parseSTL(data)
	case "gltf", "glb":
		return parseGLTF(data)
	}
	return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
}
