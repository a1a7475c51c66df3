package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/ninja"
)

func plateModel(t *testing.T) []byte {
	obj := ninja.NewObject("plate")
	ba := ninja.NewBasicAttach("plate_attach")
	ba.Vertex = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	ba.Normal = []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	ba.Material = []ninja.Material{ninja.DefaultMaterial()}
	ba.Mesh = []*ninja.BasicMesh{{
		PolyType: ninja.BasicTriangles,
		Polys:    []ninja.Poly{{Kind: ninja.PolyTriangle, Indexes: []uint16{0, 1, 2}}},
	}}
	obj.Attach = ba
	raw, err := ninja.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func upload(t *testing.T, h http.Handler, url string, field string, name string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExportImportRoundTrip(t *testing.T) {
	s := NewServer(nil, nil, nil)
	h := s.Router()

	rec := upload(t, h, "/convert/export?out=glb", "model", "plate.json", plateModel(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="plate.glb"` {
		t.Errorf("content disposition %q", cd)
	}
	glb, _ := io.ReadAll(rec.Body)

	rec = upload(t, h, "/convert/import?format=basic", "scene", "plate.glb", glb)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status %d: %s", rec.Code, rec.Body.String())
	}
	obj, err := ninja.Unmarshal(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	ba, ok := obj.Attach.(*ninja.BasicAttach)
	if obj.Name != "plate" || !ok || len(ba.Vertex) != 3 {
		t.Errorf("imported %q with attach %T", obj.Name, obj.Attach)
	}
}

func TestExportErrors(t *testing.T) {
	h := NewServer(nil, nil, nil).Router()
	if rec := upload(t, h, "/convert/export?out=obj", "model", "plate.json", plateModel(t)); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown output status %d", rec.Code)
	}
	if rec := upload(t, h, "/convert/export", "model", "plate.json", []byte("{")); rec.Code != http.StatusBadRequest {
		t.Errorf("broken model status %d", rec.Code)
	}
	if rec := upload(t, h, "/convert/import?format=psx", "scene", "a.glb", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status %d", rec.Code)
	}
}

func TestTextures(t *testing.T) {
	s := NewServer(config.Default(), []string{"old.pvr"}, nil)
	h := s.Router()

	rec := upload(t, h, "/textures", "list", "list.txt", []byte("A.PVR\r\nb.pvr\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/textures", nil))
	var textures []string
	if err := json.Unmarshal(rec.Body.Bytes(), &textures); err != nil {
		t.Fatal(err)
	}
	if len(textures) != 2 || textures[0] != "A.PVR" || textures[1] != "b.pvr" {
		t.Errorf("textures %q", textures)
	}
}

func TestFormats(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(nil, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/formats", nil))
	var formats []string
	if err := json.Unmarshal(rec.Body.Bytes(), &formats); err != nil {
		t.Fatal(err)
	}
	if len(formats) != 4 || formats[0] != "basic" || formats[3] != "gc" {
		t.Errorf("formats %q", formats)
	}
}
