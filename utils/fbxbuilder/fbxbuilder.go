package fbxbuilder

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mogaika/fbx/builders/bfbx73"
	"go.uber.org/zap"

	"github.com/mogaika/fbx"
	"github.com/pkg/errors"
)

const (
	fbxVersion        = 7400
	fbxCreator        = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
	fbxVendor         = "mogaika"
	fbxApplication    = "ninja_converter"
	fbxAppVersion     = "1.0"
	fbxDateTimeGMT    = "01/01/1970 00:00:00.000"
	fbxCreationFormat = "2006-01-02 15:04:05:000"
)

// fixed stamp keeps output of equal scenes byte identical
var fbxCreationTime = time.Date(1970, 1, 1, 10, 0, 0, 0, time.UTC)

var fbxFileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

type FBXBuilder struct {
	f      *fbx.FBX
	c      map[interface{}]interface{}
	lastId int64
	files  map[string][]byte
	log    *zap.Logger

	textures []string

	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string, log *zap.Logger) *FBXBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	f := &FBXBuilder{
		log:         log,
		c:           make(map[interface{}]interface{}),
		files:       make(map[string][]byte),
		lastId:      1000000,
		f:           fbx.NewFBX(fbxVersion),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.createHeaders(filename)
	return f
}

func applicationInfo(prefix string) []*fbx.Node {
	return []*fbx.Node{
		bfbx73.P(prefix, "Compound", "", ""),
		bfbx73.P(prefix+"|ApplicationVendor", "KString", "", "", fbxVendor),
		bfbx73.P(prefix+"|ApplicationName", "KString", "", "", fbxApplication),
		bfbx73.P(prefix+"|ApplicationVersion", "KString", "", "", fbxAppVersion),
		bfbx73.P(prefix+"|DateTime_GMT", "DateTime", "", "", fbxDateTimeGMT),
	}
}

func headerExtension(filename string) *fbx.Node {
	t := fbxCreationTime
	sceneProps := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
	)
	sceneProps.AddNodes(applicationInfo("Original")...)
	sceneProps.AddNodes(bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)))
	sceneProps.AddNodes(applicationInfo("LastSaved")...)

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(int32(t.Year())),
			bfbx73.Month(int32(t.Month())),
			bfbx73.Day(int32(t.Day())),
			bfbx73.Hour(int32(t.Hour())),
			bfbx73.Minute(int32(t.Minute())),
			bfbx73.Second(int32(t.Second())),
			bfbx73.Millisecond(0),
		),
		bfbx73.Creator(fbxCreator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.MetaData().AddNodes(
				bfbx73.Version(100),
				bfbx73.Title(""),
				bfbx73.Subject(""),
				bfbx73.Author(""),
				bfbx73.Keywords(""),
				bfbx73.Revision(""),
				bfbx73.Comment(filepath.Base(filename)),
			),
			sceneProps,
		),
	)
}

// globalSettings declares y up, z front, right handed, unit scale.
func globalSettings() *fbx.Node {
	axis := func(name string, v int32) *fbx.Node {
		return bfbx73.P(name, "int", "Integer", "", v)
	}
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			axis("UpAxis", 1),
			axis("UpAxisSign", 1),
			axis("FrontAxis", 2),
			axis("FrontAxisSign", 1),
			axis("CoordAxis", 0),
			axis("CoordAxisSign", 1),
			axis("OriginalUpAxis", 1),
			axis("OriginalUpAxisSign", 1),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
		),
	)
}

// objectType declares a definition whose count is filled by countDefinitions.
func objectType(name string, template string, props ...*fbx.Node) *fbx.Node {
	return bfbx73.ObjectType(name).AddNodes(
		bfbx73.Count(0),
		bfbx73.PropertyTemplate(template).AddNodes(
			bfbx73.Properties70().AddNodes(props...),
		),
	)
}

// definitions covers the object kinds AddScene writes.
func definitions() *fbx.Node {
	color := func(name string, v float64) *fbx.Node {
		return bfbx73.P(name, "Color", "", "A", v, v, v)
	}
	factor := func(name string) *fbx.Node {
		return bfbx73.P(name, "Number", "", "A", float64(1))
	}
	return bfbx73.Definitions().AddNodes(
		bfbx73.Version(100),
		bfbx73.Count(1),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
		objectType("Model", "FbxNode",
			bfbx73.P("Show", "bool", "", "", int32(1)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
		),
		objectType("Material", "FbxSurfacePhong",
			bfbx73.P("ShadingModel", "KString", "", "", "Phong"),
			color("AmbientColor", 0.2),
			factor("AmbientFactor"),
			color("DiffuseColor", 1),
			factor("DiffuseFactor"),
			color("SpecularColor", 0.2),
			factor("SpecularFactor"),
		),
		objectType("Geometry", "FbxMesh",
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
			bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
		),
		objectType("NodeAttribute", "FbxNull",
			bfbx73.P("Size", "double", "Number", "", float64(100)),
			bfbx73.P("Look", "enum", "", "", int32(1)),
		),
	)
}

func (f *FBXBuilder) createHeaders(filename string) {
	f.Root().AddNodes(
		headerExtension(filename),
		bfbx73.FileId(fbxFileId),
		bfbx73.CreationTime(fbxCreationTime.Format(fbxCreationFormat)),
		bfbx73.Creator(fbxCreator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		definitions(),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(
			bfbx73.Current(""),
		),
	)
}

func (f *FBXBuilder) countDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		if count, ex := counts[object.Name]; ex {
			counts[object.Name] = count + 1
		} else {
			counts[object.Name] = 1
		}
	}

	definitions := f.Root().GetNode("Definitions")
	totalCount := int32(1) // 1 for GlobalSettings

	for name, count := range counts {
		totalCount += count

		var objectType *fbx.Node
		for _, ot := range definitions.GetNodes("ObjectType") {
			if ot.Properties[0].(string) == name {
				objectType = ot
			}
		}
		if objectType == nil {
			objectType = bfbx73.ObjectType(name)
			definitions.AddNode(objectType)
		}

		objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = count
		f.log.Debug("fbx definitions", zap.String("type", name), zap.Int32("count", count))
	}

	definitions.GetOrAddNode(bfbx73.Count(0)).Properties[0] = totalCount
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

// AddCache remembers the exported form of key, usually a scene pointer.
func (f *FBXBuilder) AddCache(key interface{}, d interface{}) {
	f.c[key] = d
}

func (f *FBXBuilder) GetCached(key interface{}) interface{} {
	if v, e := f.c[key]; e {
		return v
	} else {
		return nil
	}
}

func (f *FBXBuilder) GetCachedOr(key interface{}, create func() interface{}) interface{} {
	if v := f.GetCached(key); v != nil {
		return v
	}
	v := create()
	f.AddCache(key, v)
	return v
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// fbx.Write needs a seekable target, so output goes through a temp file.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.countDefinitions()

	if ce := f.log.Check(zap.DebugLevel, "fbx tree"); ce != nil {
		ce.Write(zap.String("tree", f.f.SPrint()))
	}

	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrap(err, "write fbx")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddExportFile(name string, data []byte) {
	f.files[name] = data
}

func (f *FBXBuilder) WriteZip(w io.Writer, name string) error {
	zw := zip.NewWriter(w)

	fbxW, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create zip fbx for %q", name)
	}
	if err := f.Write(fbxW); err != nil {
		return errors.Wrapf(err, "Fbx exporting failed")
	}

	for name, file := range f.files {
		fw, err := zw.Create(name)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip for %q", name)
		}
		if _, err := fw.Write(file); err != nil {
			return errors.Wrapf(err, "Can't write zip for %q", name)
		}
	}

	return zw.Close()
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }
