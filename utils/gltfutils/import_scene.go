package gltfutils

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/ninja_converter/scene"
)

const (
	extraShininess = "shininess"
	extraSpecular  = "specular"
)

type sceneImporter struct {
	doc     *gltf.Document
	sc      *scene.Scene
	visited map[int]bool
}

// ImportScene converts the default scene of doc. A single top level node
// becomes the scene root; several are grouped under a new root.
func ImportScene(doc *gltf.Document) (*scene.Scene, error) {
	im := &sceneImporter{
		doc:     doc,
		sc:      &scene.Scene{},
		visited: make(map[int]bool),
	}
	for i, gm := range doc.Materials {
		m, err := im.material(gm)
		if err != nil {
			return nil, errors.Wrapf(err, "material %d", i)
		}
		im.sc.Materials = append(im.sc.Materials, m)
	}

	roots, err := im.rootNodes()
	if err != nil {
		return nil, err
	}
	if len(roots) == 1 {
		root, err := im.node(roots[0], nil)
		if err != nil {
			return nil, err
		}
		im.sc.RootNode = root
		return im.sc, nil
	}

	im.sc.RootNode = scene.NewNode("RootNode", nil)
	for _, r := range roots {
		if _, err := im.node(r, im.sc.RootNode); err != nil {
			return nil, err
		}
	}
	return im.sc, nil
}

func (im *sceneImporter) rootNodes() ([]int, error) {
	doc := im.doc
	if len(doc.Scenes) != 0 {
		si := 0
		if doc.Scene != nil {
			si = int(*doc.Scene)
		}
		if si >= len(doc.Scenes) {
			return nil, errors.Errorf("default scene %d out of range", si)
		}
		roots := make([]int, len(doc.Scenes[si].Nodes))
		for i, n := range doc.Scenes[si].Nodes {
			roots[i] = int(n)
		}
		return roots, nil
	}

	// no scenes: every node nobody references is a root
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[int(c)] = true
		}
	}
	roots := make([]int, 0)
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func nodeTransform(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return mgl32.Mat4(m)
	}
	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	r := mgl32.Ident4()
	if n.Rotation != [4]float32{} {
		q := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
		r = q.Normalize().Mat4()
	}
	s := n.Scale
	if s == [3]float32{} {
		s = [3]float32{1, 1, 1}
	}
	return t.Mul4(r).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func (im *sceneImporter) node(index int, parent *scene.Node) (*scene.Node, error) {
	if index < 0 || index >= len(im.doc.Nodes) {
		return nil, errors.Errorf("node %d out of range", index)
	}
	if im.visited[index] {
		return nil, errors.Errorf("node %d referenced twice", index)
	}
	im.visited[index] = true

	gn := im.doc.Nodes[index]
	n := scene.NewNode(gn.Name, parent)
	n.Transform = nodeTransform(gn)

	if gn.Mesh != nil {
		if err := im.meshes(n, gn); err != nil {
			return nil, errors.Wrapf(err, "node %q", gn.Name)
		}
	}
	for _, c := range gn.Children {
		if _, err := im.node(int(c), n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func wrapFromGLTF(w gltf.WrappingMode) scene.WrapMode {
	switch w {
	case gltf.WrapClampToEdge:
		return scene.WrapModeClamp
	case gltf.WrapMirroredRepeat:
		return scene.WrapModeMirror
	default:
		return scene.WrapModeWrap
	}
}

func (im *sceneImporter) textureSlot(ti *gltf.TextureInfo) (*scene.TextureSlot, error) {
	if int(ti.Index) >= len(im.doc.Textures) {
		return nil, errors.Errorf("texture %d out of range", ti.Index)
	}
	tex := im.doc.Textures[ti.Index]
	slot := &scene.TextureSlot{}
	if tex.Source != nil {
		if int(*tex.Source) >= len(im.doc.Images) {
			return nil, errors.Errorf("image %d out of range", *tex.Source)
		}
		img := im.doc.Images[*tex.Source]
		slot.FilePath = img.URI
		if slot.FilePath == "" || img.IsEmbeddedResource() {
			slot.FilePath = img.Name
		}
	}
	if tex.Sampler != nil && int(*tex.Sampler) < len(im.doc.Samplers) {
		s := im.doc.Samplers[*tex.Sampler]
		slot.WrapU = wrapFromGLTF(s.WrapS)
		slot.WrapV = wrapFromGLTF(s.WrapT)
	}
	return slot, nil
}

func extraFloat(v interface{}) (float32, bool) {
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		return float32(f), true
	}
	return 0, false
}

func extraColor(v interface{}) (*scene.Color4, bool) {
	var c scene.Color4
	switch a := v.(type) {
	case [4]float32:
		c = scene.Color4(a)
	case []interface{}:
		if len(a) != 4 {
			return nil, false
		}
		for i := range c {
			f, ok := extraFloat(a[i])
			if !ok {
				return nil, false
			}
			c[i] = f
		}
	default:
		return nil, false
	}
	return &c, true
}

func materialExtras(extras interface{}) map[string]interface{} {
	switch e := extras.(type) {
	case map[string]interface{}:
		return e
	case json.RawMessage:
		var m map[string]interface{}
		if json.Unmarshal(e, &m) == nil {
			return m
		}
	}
	return nil
}

func (im *sceneImporter) material(gm *gltf.Material) (*scene.Material, error) {
	m := &scene.Material{Name: gm.Name}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			c := scene.Color4(*pbr.BaseColorFactor)
			m.ColorDiffuse = &c
		}
		if pbr.BaseColorTexture != nil {
			slot, err := im.textureSlot(pbr.BaseColorTexture)
			if err != nil {
				return nil, err
			}
			m.TextureDiffuse = slot
			if gm.AlphaMode == gltf.AlphaBlend {
				opacity := *slot
				m.TextureOpacity = &opacity
			}
		}
	}
	if extras := materialExtras(gm.Extras); extras != nil {
		if f, ok := extraFloat(extras[extraShininess]); ok {
			m.Shininess = f
		}
		if c, ok := extraColor(extras[extraSpecular]); ok {
			m.ColorSpecular = c
		}
	}
	return m, nil
}

func (im *sceneImporter) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(im.doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", index)
	}
	return im.doc.Accessors[index], nil
}

func (im *sceneImporter) inverseBindMatrices(skin *gltf.Skin) ([]mgl32.Mat4, error) {
	mats := make([]mgl32.Mat4, len(skin.Joints))
	for i := range mats {
		mats[i] = mgl32.Ident4()
	}
	if skin.InverseBindMatrices == nil {
		return mats, nil
	}
	acr, err := im.accessor(*skin.InverseBindMatrices)
	if err != nil {
		return nil, err
	}
	if acr.Type != gltf.AccessorMat4 || acr.ComponentType != gltf.ComponentFloat {
		return nil, errors.Errorf("inverse bind matrices of type %v %v", acr.Type, acr.ComponentType)
	}
	data, err := modeler.ReadAccessor(im.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "inverse bind matrices")
	}
	raw, _ := data.([][4][4]float32)
	for i := range mats {
		if i >= len(raw) {
			break
		}
		// columns
		for c := 0; c < 4; c++ {
			copy(mats[i][c*4:c*4+4], raw[i][c][:])
		}
	}
	return mats, nil
}

func (im *sceneImporter) meshes(n *scene.Node, gn *gltf.Node) error {
	if int(*gn.Mesh) >= len(im.doc.Meshes) {
		return errors.Errorf("mesh %d out of range", *gn.Mesh)
	}
	gm := im.doc.Meshes[*gn.Mesh]

	var skin *gltf.Skin
	var inverse []mgl32.Mat4
	if gn.Skin != nil {
		if int(*gn.Skin) >= len(im.doc.Skins) {
			return errors.Errorf("skin %d out of range", *gn.Skin)
		}
		skin = im.doc.Skins[*gn.Skin]
		var err error
		if inverse, err = im.inverseBindMatrices(skin); err != nil {
			return errors.Wrapf(err, "skin %q", skin.Name)
		}
	}

	for pi, p := range gm.Primitives {
		mesh, err := im.primitive(p, skin, inverse)
		if err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", gm.Name, pi)
		}
		mesh.Name = gm.Name
		if len(gm.Primitives) > 1 {
			mesh.Name = fmt.Sprintf("%s_%d", gm.Name, pi)
		}
		n.MeshIndices = append(n.MeshIndices, im.sc.AddMesh(mesh))
	}
	return nil
}

func (im *sceneImporter) primitive(p *gltf.Primitive, skin *gltf.Skin, inverse []mgl32.Mat4) (*scene.Mesh, error) {
	if p.Mode != gltf.PrimitiveTriangles {
		return nil, errors.Errorf("primitive mode %v is not supported", p.Mode)
	}
	doc := im.doc
	mesh := &scene.Mesh{MaterialIndex: -1}
	if p.Material != nil {
		mesh.MaterialIndex = int(*p.Material)
	}

	index, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("no positions")
	}
	acr, err := im.accessor(index)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}
	count := len(positions)
	mesh.Vertices = make([]mgl32.Vec3, count)
	for i, v := range positions {
		mesh.Vertices[i] = v
	}

	if index, ok := p.Attributes["NORMAL"]; ok {
		acr, err := im.accessor(index)
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
		mesh.Normals = make([]mgl32.Vec3, len(normals))
		for i, v := range normals {
			mesh.Normals[i] = v
		}
	}
	if index, ok := p.Attributes["TEXCOORD_0"]; ok {
		acr, err := im.accessor(index)
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read uvs")
		}
		mesh.TextureCoords = make([]mgl32.Vec3, len(uvs))
		for i, uv := range uvs {
			mesh.TextureCoords[i] = mgl32.Vec3{uv[0], uv[1], 0}
		}
	}
	if index, ok := p.Attributes["COLOR_0"]; ok {
		acr, err := im.accessor(index)
		if err != nil {
			return nil, err
		}
		colors, err := modeler.ReadColor(doc, acr, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read colors")
		}
		mesh.Colors = make([]scene.Color4, len(colors))
		for i, c := range colors {
			mesh.Colors[i] = scene.Color4{
				float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
		}
	}

	if p.Indices != nil {
		acr, err := im.accessor(*p.Indices)
		if err != nil {
			return nil, err
		}
		indices, err := modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, scene.Face{int(indices[i]), int(indices[i+1]), int(indices[i+2])})
		}
	} else {
		for i := 0; i+2 < count; i += 3 {
			mesh.Faces = append(mesh.Faces, scene.Face{i, i + 1, i + 2})
		}
	}

	if skin != nil {
		if err := im.bones(mesh, p, skin, inverse); err != nil {
			return nil, err
		}
	}
	return mesh, nil
}

func (im *sceneImporter) bones(mesh *scene.Mesh, p *gltf.Primitive, skin *gltf.Skin, inverse []mgl32.Mat4) error {
	jointsIndex, hasJoints := p.Attributes["JOINTS_0"]
	weightsIndex, hasWeights := p.Attributes["WEIGHTS_0"]
	if !hasJoints || !hasWeights {
		return nil
	}
	acr, err := im.accessor(jointsIndex)
	if err != nil {
		return err
	}
	joints, err := modeler.ReadJoints(im.doc, acr, nil)
	if err != nil {
		return errors.Wrap(err, "read joints")
	}
	if acr, err = im.accessor(weightsIndex); err != nil {
		return err
	}
	weights, err := modeler.ReadWeights(im.doc, acr, nil)
	if err != nil {
		return errors.Wrap(err, "read weights")
	}
	if len(joints) != len(weights) {
		return errors.Errorf("%d joints for %d weights", len(joints), len(weights))
	}

	bones := make([]*scene.Bone, len(skin.Joints))
	for v := range joints {
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			if w == 0 {
				continue
			}
			j := int(joints[v][k])
			if j >= len(skin.Joints) {
				return errors.Errorf("vertex %d: joint %d out of range", v, j)
			}
			if bones[j] == nil {
				node := int(skin.Joints[j])
				if node >= len(im.doc.Nodes) {
					return errors.Errorf("joint node %d out of range", node)
				}
				bones[j] = &scene.Bone{
					Name:         im.doc.Nodes[node].Name,
					OffsetMatrix: inverse[j],
				}
			}
			bones[j].VertexWeights = append(bones[j].VertexWeights, scene.VertexWeight{VertexID: v, Weight: w})
		}
	}
	for _, b := range bones {
		if b != nil {
			mesh.Bones = append(mesh.Bones, b)
		}
	}
	return nil
}
