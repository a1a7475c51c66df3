package web

import (
	"bytes"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/convert"
	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
	"github.com/mogaika/ninja_converter/utils/fbxbuilder"
	"github.com/mogaika/ninja_converter/utils/gltfutils"
	"github.com/mogaika/ninja_converter/webutils"
)

func baseName(name string, fallback string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// HandlerExport converts an uploaded model file ("model" form field) into a
// scene file. Query "out" selects glb (default), gltf, fbx or zip.
func (s *Server) HandlerExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := webutils.ReadFormFile(r, "model")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	obj, err := ninja.Unmarshal(data)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	sc, err := convert.Export(obj, convert.ExportOptions{Textures: s.Textures(), Logger: s.log})
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "export %q", name))
		return
	}

	base := baseName(name, obj.Name)
	out := strings.ToLower(r.URL.Query().Get("out"))
	if out == "" {
		out = "glb"
	}
	switch out {
	case "glb", "gltf":
		doc, err := gltfutils.ExportScene(sc)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := gltfutils.Encode(&buf, doc, out == "glb"); err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFile(w, &buf, base+"."+out)
	case "fbx", "zip":
		f, err := fbxbuilder.ExportSceneDefault(sc, base+".fbx", s.log)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		var buf bytes.Buffer
		if out == "fbx" {
			err = f.Write(&buf)
		} else {
			err = f.WriteZip(&buf, base+".fbx")
		}
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFile(w, &buf, base+"."+out)
	default:
		webutils.WriteError(w, errors.Errorf("unknown output %q", out))
	}
}

// HandlerImport converts an uploaded gltf or glb ("scene" form field) into a
// model file. Query "format" overrides the configured format, "node" picks
// the subtree to convert.
func (s *Server) HandlerImport(w http.ResponseWriter, r *http.Request) {
	data, name, err := webutils.ReadFormFile(r, "scene")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	format := s.cfg.Convert.Format
	if f := r.URL.Query().Get("format"); f != "" {
		if format, err = config.ParseModelFormat(f); err != nil {
			webutils.WriteError(w, err)
			return
		}
	}

	doc, err := gltfutils.Decode(bytes.NewReader(data))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	sc, err := gltfutils.ImportScene(doc)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var node *scene.Node
	if n := r.URL.Query().Get("node"); n != "" {
		if node = sc.FindNode(n); node == nil {
			webutils.WriteError(w, errors.Errorf("node %q not found", n))
			return
		}
	}

	obj, err := convert.Import(sc, node, convert.ImportOptions{
		Format:   format,
		Textures: s.Textures(),
		Logger:   s.log,
	})
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "import %q", name))
		return
	}
	raw, err := ninja.Marshal(obj)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	s.log.Debug("imported", zap.String("file", name), zap.Stringer("format", format), zap.Int("objects", obj.Count()))
	webutils.WriteFile(w, bytes.NewReader(raw), baseName(name, obj.Name)+".json")
}

func (s *Server) HandlerTextures(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.Textures())
}

// HandlerUploadTextures replaces the texture list with the uploaded "list"
// file, decoded with the configured encoding.
func (s *Server) HandlerUploadTextures(w http.ResponseWriter, r *http.Request) {
	data, _, err := webutils.ReadFormFile(r, "list")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	cm, err := s.cfg.Convert.Charmap()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	textures, err := utils.ParseTextureList(data, cm)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	s.SetTextures(textures)
	webutils.WriteJson(w, textures)
}

func (s *Server) HandlerFormats(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0)
	for _, f := range config.ModelFormats() {
		formats = append(formats, f.String())
	}
	sort.Strings(formats)
	webutils.WriteJson(w, formats)
}
