// Package convert translates between the native ninja object tree and the
// generic scene graph.
package convert

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/utils"
)

type ExportOptions struct {
	// texture file names, indexed by native texture id
	Textures []string
	Logger   *zap.Logger
}

type ImportOptions struct {
	Format   config.ModelFormat
	Textures []string
	Logger   *zap.Logger
}

const (
	vertexBufferSize = ninja.MaxCacheIndex + 1
	polyCacheSize    = 256
	// identifier names repeat between runs of the same conversion
	nameSeed = 0x6e6a
)

var up = mgl32.Vec3{0, 1, 0}

type boneWeight struct {
	Bone   int
	Weight float32
}

// cachedVertex is one slot of the vertex cache during export.
type cachedVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    color.NRGBA
	HasColor bool
	Weights  []boneWeight
	Defined  bool
}

type cachedPoly struct {
	chunks []ninja.PolyChunk
	start  int
}

// context carries staging state of one Export or Import call.
type context struct {
	log      *zap.Logger
	textures []string
	names    *utils.RandomNameGenerator

	vertices  []cachedVertex
	polyCache [polyCacheSize]*cachedPoly
	material  ninja.Material

	vcache     *VertexCache
	nodes      *NodeTable
	sceneNodes *SceneNodeTable
}

func newContext(log *zap.Logger, textures []string) *context {
	if log == nil {
		log = zap.NewNop()
	}
	return &context{
		log:      log,
		textures: textures,
		names:    utils.NewRandomNameGenerator(nameSeed),
		material: ninja.DefaultMaterial(),
		vcache:   NewVertexCache(),
	}
}

// vertexBuffer allocates the export vertex cache on first use.
func (ctx *context) vertexBuffer() []cachedVertex {
	if ctx.vertices == nil {
		ctx.vertices = make([]cachedVertex, vertexBufferSize)
	}
	return ctx.vertices
}
