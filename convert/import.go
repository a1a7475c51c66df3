package convert

import (
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

var ErrEmptyScene = errors.New("scene has nothing to import")

// Import converts node and its subtree into a native object tree. A nil node
// or the scene root imports the whole scene: a single top level node under a
// root without meshes is returned as is, otherwise the root object is kept.
// Chunk models of scenes with bones are rebuilt around the skeleton instead.
func Import(sc *scene.Scene, node *scene.Node, opts ImportOptions) (*ninja.Object, error) {
	if sc == nil || sc.RootNode == nil {
		return nil, errors.New("scene without root node")
	}
	ctx := newContext(opts.Logger, opts.Textures)
	ctx.log.Debug("importing scene",
		zap.Stringer("format", opts.Format), zap.Int("meshes", len(sc.Meshes)), zap.Int("materials", len(sc.Materials)))

	if opts.Format == config.ModelFormatChunk && sceneHasBones(sc) {
		return ctx.importWeighted(sc)
	}

	if node != nil && node != sc.RootNode {
		return ctx.importNode(sc, node, opts.Format)
	}
	root, err := ctx.importNode(sc, sc.RootNode, opts.Format)
	if err != nil {
		return nil, err
	}
	switch len(root.Children) {
	case 0:
		if root.Attach == nil {
			return nil, ErrEmptyScene
		}
		return root, nil
	case 1:
		if root.Attach == nil {
			return root.Children[0], nil
		}
	}
	return root, nil
}

func sceneHasBones(sc *scene.Scene) bool {
	for _, m := range sc.Meshes {
		if m.HasBones() {
			return true
		}
	}
	return false
}

func newObject(n *scene.Node) *ninja.Object {
	obj := ninja.NewObject(StripNodeName(n.Name))
	obj.SetLocalMatrix(n.Transform)
	obj.Animate = true
	obj.Morph = true
	return obj
}

// collapseUnnamed replaces an unnamed object holding exactly one child by that
// child, folding the unnamed object transform into it.
func collapseUnnamed(n *scene.Node, obj *ninja.Object) *ninja.Object {
	if n.Name != "" || obj.Attach != nil || len(obj.Children) != 1 {
		return obj
	}
	c := obj.Children[0]
	c.SetLocalMatrix(obj.LocalMatrix().Mul4(c.LocalMatrix()))
	return c
}

func (ctx *context) importNode(sc *scene.Scene, n *scene.Node, format config.ModelFormat) (*ninja.Object, error) {
	obj := newObject(n)
	if n.HasMeshes() {
		meshes := make([]*scene.Mesh, len(n.MeshIndices))
		for i, mi := range n.MeshIndices {
			if mi < 0 || mi >= len(sc.Meshes) {
				return nil, errors.Errorf("node %q: mesh index %d out of range", n.Name, mi)
			}
			if err := validateMesh(sc.Meshes[mi]); err != nil {
				return nil, errors.Wrapf(err, "node %q", n.Name)
			}
			meshes[i] = sc.Meshes[mi]
		}

		var err error
		switch format {
		case config.ModelFormatBasic, config.ModelFormatBasicDX:
			obj.Attach, err = ctx.importBasic(sc, meshes)
		case config.ModelFormatChunk:
			obj.Attach, err = ctx.importChunk(sc, meshes)
		case config.ModelFormatGC:
			obj.Attach, err = ctx.importGC(sc, meshes)
		default:
			err = errors.Errorf("unknown model format %v", format)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", n.Name)
		}
	}

	for _, c := range n.Children {
		child, err := ctx.importNode(sc, c, format)
		if err != nil {
			return nil, err
		}
		obj.AddChild(collapseUnnamed(c, child))
	}
	return obj, nil
}

func validateMesh(mesh *scene.Mesh) error {
	n := mesh.VertexCount()
	if mesh.HasNormals() && len(mesh.Normals) != n {
		return errors.Errorf("mesh %q: %d normals for %d vertices", mesh.Name, len(mesh.Normals), n)
	}
	if mesh.HasTextureCoords() && len(mesh.TextureCoords) != n {
		return errors.Errorf("mesh %q: %d uvs for %d vertices", mesh.Name, len(mesh.TextureCoords), n)
	}
	if mesh.HasVertexColors() && len(mesh.Colors) != n {
		return errors.Errorf("mesh %q: %d colors for %d vertices", mesh.Name, len(mesh.Colors), n)
	}
	for fi, f := range mesh.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return errors.Errorf("mesh %q face %d: vertex %d out of range", mesh.Name, fi, idx)
			}
		}
	}
	return nil
}

func sceneMaterial(sc *scene.Scene, i int) *scene.Material {
	if i < 0 || i >= len(sc.Materials) {
		return nil
	}
	return sc.Materials[i]
}

func sceneColor(c scene.Color4) color.NRGBA {
	return utils.ColorFloat(c).NRGBA()
}

// meshPolyChunks emits material state followed by the strips of one mesh.
func (ctx *context) meshPolyChunks(sc *scene.Scene, mesh *scene.Mesh, strips []*ninja.Strip) []ninja.PolyChunk {
	var chunks []ninja.PolyChunk
	if sm := sceneMaterial(sc, mesh.MaterialIndex); sm != nil {
		m := materialFromScene(sm, ctx.textures)
		chunks = append(chunks, materialChunk(m))
		if _, ok := textureID(sm, ctx.textures); ok {
			chunks = append(chunks, textureIDChunk(m))
		}
	}
	st := ninja.NewStripChunk(ninja.ChunkStrip)
	if mesh.HasTextureCoords() {
		st.ChunkType = ninja.ChunkStripUVN
	}
	st.Strips = strips
	return append(chunks, st)
}
