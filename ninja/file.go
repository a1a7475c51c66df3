package ninja

import (
	"encoding/json"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Model files are json documents. Chunk attaches keep vertex and poly lists
// in their binary chunk encoding.
const FileVersion = 1

type fileHeader struct {
	Version int
	Root    *fileObject
}

type fileObject struct {
	Name     string
	Position mgl32.Vec3
	Rotation Rotation
	Scale    mgl32.Vec3
	Animate  bool          `json:",omitempty"`
	Morph    bool          `json:",omitempty"`
	Attach   *fileAttach   `json:",omitempty"`
	Children []*fileObject `json:",omitempty"`
}

type fileAttach struct {
	Kind   string
	Name   string
	Bounds BoundingSphere
	Vertex []byte       `json:",omitempty"`
	Poly   []byte       `json:",omitempty"`
	Basic  *BasicAttach `json:",omitempty"`
	GC     *fileGC      `json:",omitempty"`
}

type fileGC struct {
	VertexData  GCVertexData
	Opaque      []*fileGCMesh `json:",omitempty"`
	Translucent []*fileGCMesh `json:",omitempty"`
}

type fileGCMesh struct {
	Parameters []*fileGCParameter
	Primitives []*GCPrimitive
}

type fileGCParameter struct {
	Type GCParameterType
	Data json.RawMessage
}

func newGCParameter(t GCParameterType) (GCParameter, error) {
	switch t {
	case GCParamVtxAttrFmt:
		return &GCVtxAttrFmtParameter{}, nil
	case GCParamIndexAttribute:
		return &GCIndexAttributeParameter{}, nil
	case GCParamLighting:
		return &GCLightingParameter{}, nil
	case GCParamBlendAlpha:
		return &GCBlendAlphaParameter{}, nil
	case GCParamAmbientColor:
		return &GCAmbientColorParameter{}, nil
	case GCParamTexture:
		return &GCTextureParameter{}, nil
	case GCParamTexCoordGen:
		return &GCTexCoordGenParameter{}, nil
	}
	return nil, errors.Errorf("unknown gc parameter type %d", t)
}

func marshalGCMeshes(meshes []*GCMesh) ([]*fileGCMesh, error) {
	if len(meshes) == 0 {
		return nil, nil
	}
	result := make([]*fileGCMesh, len(meshes))
	for i, m := range meshes {
		fm := &fileGCMesh{Primitives: m.Primitives}
		for _, p := range m.Parameters {
			data, err := json.Marshal(p)
			if err != nil {
				return nil, errors.Wrapf(err, "gc parameter %d", p.ParameterType())
			}
			fm.Parameters = append(fm.Parameters, &fileGCParameter{Type: p.ParameterType(), Data: data})
		}
		result[i] = fm
	}
	return result, nil
}

func unmarshalGCMeshes(meshes []*fileGCMesh) ([]*GCMesh, error) {
	if len(meshes) == 0 {
		return nil, nil
	}
	result := make([]*GCMesh, len(meshes))
	for i, fm := range meshes {
		m := &GCMesh{Primitives: fm.Primitives}
		for _, fp := range fm.Parameters {
			p, err := newGCParameter(fp.Type)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(fp.Data, p); err != nil {
				return nil, errors.Wrapf(err, "gc parameter %d", fp.Type)
			}
			m.Parameters = append(m.Parameters, p)
		}
		result[i] = m
	}
	return result, nil
}

func marshalAttach(a Attach) (*fileAttach, error) {
	fa := &fileAttach{
		Kind:   a.Kind().String(),
		Name:   a.Label(),
		Bounds: a.BoundingSphere(),
	}
	var err error
	switch v := a.(type) {
	case *ChunkAttach:
		if fa.Vertex, err = EncodeVertexChunks(v.Vertex); err != nil {
			return nil, err
		}
		if fa.Poly, err = EncodePolyChunks(v.Poly); err != nil {
			return nil, err
		}
	case *BasicAttach:
		fa.Basic = v
	case *GCAttach:
		fa.GC = &fileGC{VertexData: v.VertexData}
		if fa.GC.Opaque, err = marshalGCMeshes(v.OpaqueMeshes); err != nil {
			return nil, err
		}
		if fa.GC.Translucent, err = marshalGCMeshes(v.TranslucentMeshes); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown attach type %T", a)
	}
	return fa, nil
}

func unmarshalAttach(fa *fileAttach) (Attach, error) {
	switch fa.Kind {
	case AttachChunk.String():
		ca := NewChunkAttach(fa.Name)
		ca.Bounds = fa.Bounds
		var err error
		if ca.Vertex, err = DecodeVertexChunks(fa.Vertex); err != nil {
			return nil, errors.Wrapf(err, "attach %q vertex", fa.Name)
		}
		if ca.Poly, err = DecodePolyChunks(fa.Poly); err != nil {
			return nil, errors.Wrapf(err, "attach %q poly", fa.Name)
		}
		return ca, nil
	case AttachBasic.String():
		if fa.Basic == nil {
			return nil, errors.Errorf("attach %q: missing basic payload", fa.Name)
		}
		if err := fa.Basic.Validate(); err != nil {
			return nil, err
		}
		return fa.Basic, nil
	case AttachGC.String():
		if fa.GC == nil {
			return nil, errors.Errorf("attach %q: missing gc payload", fa.Name)
		}
		ga := NewGCAttach(fa.Name)
		ga.Bounds = fa.Bounds
		ga.VertexData = fa.GC.VertexData
		var err error
		if ga.OpaqueMeshes, err = unmarshalGCMeshes(fa.GC.Opaque); err != nil {
			return nil, err
		}
		if ga.TranslucentMeshes, err = unmarshalGCMeshes(fa.GC.Translucent); err != nil {
			return nil, err
		}
		return ga, ga.Validate()
	}
	return nil, errors.Errorf("attach %q: unknown kind %q", fa.Name, fa.Kind)
}

func marshalObject(o *Object) (*fileObject, error) {
	fo := &fileObject{
		Name:     o.Name,
		Position: o.Position,
		Rotation: o.Rotation,
		Scale:    o.Scale,
		Animate:  o.Animate,
		Morph:    o.Morph,
	}
	if o.Attach != nil {
		fa, err := marshalAttach(o.Attach)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", o.Name)
		}
		fo.Attach = fa
	}
	for _, c := range o.Children {
		fc, err := marshalObject(c)
		if err != nil {
			return nil, err
		}
		fo.Children = append(fo.Children, fc)
	}
	return fo, nil
}

func unmarshalObject(fo *fileObject) (*Object, error) {
	o := &Object{
		Name:     fo.Name,
		Position: fo.Position,
		Rotation: fo.Rotation,
		Scale:    fo.Scale,
		Animate:  fo.Animate,
		Morph:    fo.Morph,
	}
	if fo.Attach != nil {
		a, err := unmarshalAttach(fo.Attach)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", fo.Name)
		}
		o.Attach = a
	}
	for _, fc := range fo.Children {
		c, err := unmarshalObject(fc)
		if err != nil {
			return nil, err
		}
		o.Children = append(o.Children, c)
	}
	return o, nil
}

func Marshal(root *Object) ([]byte, error) {
	fo, err := marshalObject(root)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(&fileHeader{Version: FileVersion, Root: fo}, "", "  ")
}

func Unmarshal(b []byte) (*Object, error) {
	var fh fileHeader
	if err := json.Unmarshal(b, &fh); err != nil {
		return nil, errors.Wrap(err, "parse model file")
	}
	if fh.Version != FileVersion {
		return nil, errors.Errorf("unsupported model file version %d", fh.Version)
	}
	if fh.Root == nil {
		return nil, errors.New("model file has no root object")
	}
	return unmarshalObject(fh.Root)
}

func Save(path string, root *Object) error {
	b, err := Marshal(root)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, b, 0644), "write %q", path)
}

func Load(path string) (*Object, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", path)
	}
	obj, err := Unmarshal(b)
	return obj, errors.Wrapf(err, "load %q", path)
}
