package service

import (
	"bytes"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a body is read when the extension is not conclusive.
const sniffLen = 3072

// Camera raw and newer image formats missing from most mime.types tables.
var extraContentTypes = map[string]string{
	".avif": "image/avif",
	".heic": "image/heic",
	".heif": "image/heif",
	".webp": "image/webp",
	".dng":  "image/x-adobe-dng",
	".cr2":  "image/x-canon-cr2",
	".cr3":  "image/x-canon-cr3",
	".nef":  "image/x-nikon-nef",
	".arw":  "image/x-sony-arw",
	".raf":  "image/x-fuji-raf",
}

// ContentTypeByName infers a content type from the file extension.
// It returns "" when the extension is unknown.
func ContentTypeByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if ct, ok := extraContentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// detectContentType picks the content type of a stream: extension first,
// then the stored type, then content sniffing. The returned reader yields
// the full body, including any bytes consumed while sniffing.
func detectContentType(name, stored string, body io.Reader) (string, io.Reader, error) {
	if ct := ContentTypeByName(name); ct != "" {
		return ct, body, nil
	}
	if stored != "" && stored != "application/octet-stream" {
		return stored, body, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), body), nil
}
