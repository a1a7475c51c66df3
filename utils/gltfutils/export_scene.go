package gltfutils

import (
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

// glTF skinning reads at most four influences per vertex
const maxInfluences = 4

type textureKey struct {
	image   uint32
	sampler uint32
}

type sceneExporter struct {
	sc  *scene.Scene
	doc *gltf.Document

	order    []*scene.Node
	nodes    map[*scene.Node]uint32
	byName   map[string]uint32
	images   map[string]uint32
	samplers map[[2]scene.WrapMode]uint32
	textures map[textureKey]uint32
}

// ExportScene converts sc into a gltf document. The scene root becomes the
// single top level node. Meshes of a node are written as primitives of one
// gltf mesh sharing one skin built from the bones of all of them.
func ExportScene(sc *scene.Scene) (*gltf.Document, error) {
	if sc == nil || sc.RootNode == nil {
		return nil, errors.New("scene without root node")
	}
	e := &sceneExporter{
		sc:       sc,
		doc:      NewDocument(),
		nodes:    make(map[*scene.Node]uint32),
		byName:   make(map[string]uint32),
		images:   make(map[string]uint32),
		samplers: make(map[[2]scene.WrapMode]uint32),
		textures: make(map[textureKey]uint32),
	}

	for _, m := range sc.Materials {
		e.doc.Materials = append(e.doc.Materials, e.material(m))
	}

	root := e.addNode(sc.RootNode)
	e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, root)

	// bones are resolved by node name, so every node must exist first
	for _, n := range e.order {
		if n.HasMeshes() {
			if err := e.addMeshes(n); err != nil {
				return nil, errors.Wrapf(err, "node %q", n.Name)
			}
		}
	}
	return e.doc, nil
}

func (e *sceneExporter) addNode(n *scene.Node) uint32 {
	index := uint32(len(e.doc.Nodes))
	gn := &gltf.Node{
		Name:     n.Name,
		Matrix:   [16]float32(n.Transform),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	e.doc.Nodes = append(e.doc.Nodes, gn)
	e.order = append(e.order, n)
	e.nodes[n] = index
	if _, exists := e.byName[n.Name]; !exists {
		e.byName[n.Name] = index
	}
	for _, c := range n.Children {
		gn.Children = append(gn.Children, e.addNode(c))
	}
	return index
}

func wrapMode(w scene.WrapMode) gltf.WrappingMode {
	switch w {
	case scene.WrapModeClamp:
		return gltf.WrapClampToEdge
	case scene.WrapModeMirror:
		return gltf.WrapMirroredRepeat
	default:
		return gltf.WrapRepeat
	}
}

func (e *sceneExporter) texture(slot *scene.TextureSlot) uint32 {
	image, ok := e.images[slot.FilePath]
	if !ok {
		image = uint32(len(e.doc.Images))
		uri := filepath.ToSlash(slot.FilePath)
		e.doc.Images = append(e.doc.Images, &gltf.Image{
			Name: path.Base(uri),
			URI:  uri,
		})
		e.images[slot.FilePath] = image
	}

	wrap := [2]scene.WrapMode{slot.WrapU, slot.WrapV}
	sampler, ok := e.samplers[wrap]
	if !ok {
		sampler = uint32(len(e.doc.Samplers))
		e.doc.Samplers = append(e.doc.Samplers, &gltf.Sampler{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinear,
			WrapS:     wrapMode(slot.WrapU),
			WrapT:     wrapMode(slot.WrapV),
		})
		e.samplers[wrap] = sampler
	}

	key := textureKey{image: image, sampler: sampler}
	tex, ok := e.textures[key]
	if !ok {
		tex = uint32(len(e.doc.Textures))
		e.doc.Textures = append(e.doc.Textures, &gltf.Texture{
			Name:    e.doc.Images[image].Name,
			Sampler: gltf.Index(sampler),
			Source:  gltf.Index(image),
		})
		e.textures[key] = tex
	}
	return tex
}

func (e *sceneExporter) material(m *scene.Material) *gltf.Material {
	gm := &gltf.Material{
		Name:                 m.Name,
		DoubleSided:          true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}
	if m.ColorDiffuse != nil {
		color := new([4]float32)
		*color = [4]float32(*m.ColorDiffuse)
		gm.PBRMetallicRoughness.BaseColorFactor = color
	}
	if m.TextureDiffuse != nil {
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: e.texture(m.TextureDiffuse),
		}
	}
	if m.TextureOpacity != nil {
		gm.AlphaMode = gltf.AlphaBlend
	}

	extras := map[string]interface{}{
		extraShininess: m.Shininess,
	}
	if m.ColorSpecular != nil {
		extras[extraSpecular] = [4]float32(*m.ColorSpecular)
	}
	gm.Extras = extras
	return gm
}

type skinBuilder struct {
	joints  []uint32
	index   map[string]int
	inverse [][4][4]float32
}

func (sb *skinBuilder) joint(e *sceneExporter, b *scene.Bone) (int, error) {
	if j, ok := sb.index[b.Name]; ok {
		return j, nil
	}
	node, ok := e.byName[b.Name]
	if !ok {
		return 0, errors.Errorf("bone %q has no node", b.Name)
	}
	j := len(sb.joints)
	sb.joints = append(sb.joints, node)
	var m [4][4]float32
	for c := 0; c < 4; c++ {
		m[c] = [4]float32(b.OffsetMatrix.Col(c))
	}
	sb.inverse = append(sb.inverse, m)
	sb.index[b.Name] = j
	return j, nil
}

// addMatrices stores inverse bind matrices. They are not vertex attributes,
// so the buffer view has no target.
func (e *sceneExporter) addMatrices(mats [][4][4]float32) uint32 {
	return modeler.WriteAccessor(e.doc, gltf.TargetNone, mats)
}

type influence struct {
	joint  int
	weight float32
}

func (e *sceneExporter) addMeshes(n *scene.Node) error {
	gm := &gltf.Mesh{Name: n.Name}
	if len(n.MeshIndices) == 1 {
		if mi := n.MeshIndices[0]; mi >= 0 && mi < len(e.sc.Meshes) {
			gm.Name = e.sc.Meshes[mi].Name
		}
	}
	sb := &skinBuilder{index: make(map[string]int)}

	for _, mi := range n.MeshIndices {
		if mi < 0 || mi >= len(e.sc.Meshes) {
			return errors.Errorf("mesh index %d out of range", mi)
		}
		prim, err := e.primitive(e.sc.Meshes[mi], sb)
		if err != nil {
			return err
		}
		gm.Primitives = append(gm.Primitives, prim)
	}

	gn := e.doc.Nodes[e.nodes[n]]
	gn.Mesh = gltf.Index(uint32(len(e.doc.Meshes)))
	e.doc.Meshes = append(e.doc.Meshes, gm)

	if len(sb.joints) != 0 {
		gn.Skin = gltf.Index(uint32(len(e.doc.Skins)))
		e.doc.Skins = append(e.doc.Skins, &gltf.Skin{
			Name:                n.Name + "_skin",
			Joints:              sb.joints,
			InverseBindMatrices: gltf.Index(e.addMatrices(sb.inverse)),
		})
	}
	return nil
}

func (e *sceneExporter) primitive(mesh *scene.Mesh, sb *skinBuilder) (*gltf.Primitive, error) {
	count := mesh.VertexCount()
	if count == 0 {
		return nil, errors.Errorf("mesh %q has no vertices", mesh.Name)
	}

	attributes := make(map[string]uint32)
	{
		positions := make([][3]float32, count)
		for i, v := range mesh.Vertices {
			positions[i] = v
		}
		attributes["POSITION"] = modeler.WritePosition(e.doc, positions)
	}
	if len(mesh.Normals) == count {
		normals := make([][3]float32, count)
		for i, v := range mesh.Normals {
			if v.Len() > 0.5 {
				v = v.Normalize()
			}
			normals[i] = v
		}
		attributes["NORMAL"] = modeler.WriteNormal(e.doc, normals)
	}
	if len(mesh.TextureCoords) == count {
		uvs := make([][2]float32, count)
		for i, uv := range mesh.TextureCoords {
			uvs[i] = [2]float32{uv[0], uv[1]}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(e.doc, uvs)
	}
	if len(mesh.Colors) == count {
		colors := make([][4]uint8, count)
		for i, c := range mesh.Colors {
			nc := utils.ColorFloat(c).NRGBA()
			colors[i] = [4]uint8{nc.R, nc.G, nc.B, nc.A}
		}
		attributes["COLOR_0"] = modeler.WriteColor(e.doc, colors)
	}

	if mesh.HasBones() {
		influences := make([][]influence, count)
		for _, b := range mesh.Bones {
			j, err := sb.joint(e, b)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q", mesh.Name)
			}
			for _, vw := range b.VertexWeights {
				if vw.VertexID < 0 || vw.VertexID >= count {
					return nil, errors.Errorf("mesh %q bone %q: vertex %d out of range", mesh.Name, b.Name, vw.VertexID)
				}
				influences[vw.VertexID] = append(influences[vw.VertexID], influence{joint: j, weight: vw.Weight})
			}
		}

		joints := make([][4]uint16, count)
		weights := make([][4]float32, count)
		for v, inf := range influences {
			sort.SliceStable(inf, func(a, b int) bool { return inf[a].weight > inf[b].weight })
			if len(inf) > maxInfluences {
				inf = inf[:maxInfluences]
			}
			for k, in := range inf {
				joints[v][k] = uint16(in.joint)
				weights[v][k] = in.weight
			}
		}
		attributes["JOINTS_0"] = modeler.WriteJoints(e.doc, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(e.doc, weights)
	}

	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for fi, f := range mesh.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= count {
				return nil, errors.Errorf("mesh %q face %d: vertex %d out of range", mesh.Name, fi, idx)
			}
			indices = append(indices, uint32(idx))
		}
	}

	prim := &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(e.doc, indices)),
		Attributes: attributes,
	}
	if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(e.doc.Materials) {
		prim.Material = gltf.Index(uint32(mesh.MaterialIndex))
	}
	return prim, nil
}
