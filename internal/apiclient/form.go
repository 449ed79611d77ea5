package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"github.com/gokuthong/ShelfLife-DAM/internal/media/sniffer"
)

type FormField struct {
	Name  string
	Value string
}

// FormFile is reopened on every send so a request can be replayed after a
// token refresh.
type FormFile struct {
	Field    string
	FileName string
	Open     func() (io.ReadCloser, error)
}

type Form struct {
	Fields []FormField
	Files  []FormFile
}

func (f *Form) Add(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

func (f *Form) AddFile(field, fileName string, open func() (io.ReadCloser, error)) {
	f.Files = append(f.Files, FormFile{Field: field, FileName: fileName, Open: open})
}

func OpenPath(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

func OpenBytes(data []byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// encode streams the multipart body through a pipe. The http client closes
// the reader on failure, which unblocks the writer goroutine.
func (f *Form) encode() (io.Reader, string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(f.write(mw))
	}()

	return pr, mw.FormDataContentType(), nil
}

func (f *Form) write(mw *multipart.Writer) error {
	for _, field := range f.Fields {
		if err := mw.WriteField(field.Name, field.Value); err != nil {
			return err
		}
	}
	for _, file := range f.Files {
		if err := writeFile(mw, file); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(mw *multipart.Writer, file FormFile) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.FileName, err)
	}
	defer rc.Close()

	_, head, err := sniffer.Detect(rc)
	if err != nil && head == nil {
		return fmt.Errorf("read %s: %w", file.FileName, err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.FileName)))
	header.Set("Content-Type", sniffer.ContentType(head, file.FileName))

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(head); err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}
