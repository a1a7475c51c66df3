package gltfutils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// Encode writes doc as glb or as gltf with buffers embedded as data uris.
func Encode(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return errors.Wrap(encoder.Encode(doc), "encode gltf")
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	return Encode(w, doc, true)
}

// Decode reads gltf or glb from r. Buffers must be embedded.
func Decode(r io.Reader) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode gltf")
	}
	return doc, nil
}

func Open(path string) (*gltf.Document, error) {
	doc, err := gltf.Open(path)
	return doc, errors.Wrapf(err, "open gltf %q", path)
}

// Save picks binary output for .glb files.
func Save(doc *gltf.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	defer f.Close()
	if err := Encode(f, doc, IsBinaryPath(path)); err != nil {
		return errors.Wrapf(err, "save %q", path)
	}
	return f.Close()
}

func IsBinaryPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".glb")
}
