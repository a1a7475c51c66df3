package convert

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

// Export converts a native object tree into a new scene. The object root
// becomes a child of the scene root node.
func Export(obj *ninja.Object, opts ExportOptions) (*scene.Scene, error) {
	sc := scene.New()
	if _, err := ExportInto(obj, sc, mgl32.Ident4(), opts, sc.RootNode); err != nil {
		return nil, err
	}
	return sc, nil
}

// ExportInto converts obj into an existing scene under parent. parentMatrix
// is the world transform of parent, used to bake skinned vertices.
// Models with any chunk attach go through the skinned path, which emits the
// object tree as a skeleton and every mesh under the scene root.
func ExportInto(obj *ninja.Object, sc *scene.Scene, parentMatrix mgl32.Mat4, opts ExportOptions, parent *scene.Node) (*scene.Node, error) {
	if obj == nil {
		return nil, errors.New("nil object")
	}
	if sc == nil || sc.RootNode == nil {
		return nil, errors.New("scene without root node")
	}
	ctx := newContext(opts.Logger, opts.Textures)
	ctx.log.Debug("exporting model", zap.String("root", obj.Name), zap.Int("objects", obj.Count()))

	if hasChunkAttach(obj) {
		return ctx.exportWeighted(obj, sc, parentMatrix, parent)
	}
	return ctx.exportPlain(obj, sc, parent)
}

func hasChunkAttach(obj *ninja.Object) bool {
	found := false
	obj.Walk(func(o *ninja.Object, _ *ninja.Object) bool {
		if _, ok := o.Attach.(*ninja.ChunkAttach); ok {
			found = true
		}
		return !found
	})
	return found
}

// exportPlain keeps meshes on the nodes of their objects.
func (ctx *context) exportPlain(obj *ninja.Object, sc *scene.Scene, parent *scene.Node) (*scene.Node, error) {
	ctx.nodes = NewNodeTable(obj, mgl32.Ident4())
	nodes := make([]*scene.Node, ctx.nodes.Len())
	for _, e := range ctx.nodes.Entries {
		p := parent
		if e.Parent >= 0 {
			p = nodes[e.Parent]
		}
		n := scene.NewNode(e.Name, p)
		n.Transform = e.Local
		nodes[e.Index] = n

		var err error
		switch a := e.Object.Attach.(type) {
		case nil:
		case *ninja.BasicAttach:
			err = ctx.exportBasic(a, sc, n)
		case *ninja.GCAttach:
			err = ctx.exportGC(a, sc, n)
		default:
			err = errors.Errorf("unsupported %v attach", a.Kind())
		}
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", e.Name)
		}
	}
	return nodes[0], nil
}
