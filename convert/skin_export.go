package convert

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

// loadVertexChunks blends vertex chunks of node bone into the vertex cache in
// world space. Weighted chunks accumulate weight scaled contributions, a Start
// chunk resets the slot.
func (ctx *context) loadVertexChunks(chunks []*ninja.VertexChunk, bone int, world mgl32.Mat4) error {
	buf := ctx.vertexBuffer()
	for ci, vc := range chunks {
		if err := vc.Validate(); err != nil {
			return errors.Wrapf(err, "vertex chunk %d", ci)
		}
		weighted := vc.HasWeight()
		orphans := 0
		for i, v := range vc.Vertices {
			slot := vc.CacheIndex(i)
			if slot >= len(buf) {
				return errors.Errorf("vertex chunk %d: cache slot %d out of range", ci, slot)
			}
			weight := float32(1)
			if weighted {
				weight, _ = ninja.UnpackWeight(vc.NinjaFlags[i])
			}
			normal := up
			if vc.HasNormals() {
				normal = vc.Normals[i]
			}
			pos := mgl32.TransformCoordinate(v, world).Mul(weight)
			nrm := mgl32.TransformNormal(normal, world).Mul(weight)

			cv := &buf[slot]
			if weighted && vc.WeightStatus != ninja.WeightStart && cv.Defined {
				cv.Position = cv.Position.Add(pos)
				cv.Normal = cv.Normal.Add(nrm)
				cv.Weights = append(cv.Weights, boneWeight{Bone: bone, Weight: weight})
			} else {
				if weighted && vc.WeightStatus != ninja.WeightStart {
					orphans++
				}
				*cv = cachedVertex{
					Position: pos,
					Normal:   nrm,
					Weights:  []boneWeight{{Bone: bone, Weight: weight}},
					Defined:  true,
				}
			}
			if vc.HasDiffuse() {
				cv.Color, cv.HasColor = vc.Diffuse[i], true
			}
		}
		if orphans != 0 {
			ctx.log.Warn("weighted vertices without start chunk",
				zap.Int("bone", bone), zap.Int("chunk", ci), zap.Int("count", orphans), zap.Stringer("status", vc.WeightStatus))
		}
	}
	return nil
}

// meshBones lists every node of the table as a bone, so bone ids stay equal
// to node indexes.
func (ctx *context) meshBones(weights [][]boneWeight) []*scene.Bone {
	bones := make([]*scene.Bone, ctx.nodes.Len())
	for i, e := range ctx.nodes.Entries {
		bones[i] = &scene.Bone{Name: e.Name, OffsetMatrix: ctx.nodes.BoneOffset(i)}
	}
	for v, ws := range weights {
		for _, w := range ws {
			b := bones[w.Bone]
			b.VertexWeights = append(b.VertexWeights, scene.VertexWeight{VertexID: v, Weight: w.Weight})
		}
	}
	return bones
}

// indexedMesh copies deduplicated vertices keeping strip winding.
func indexedMesh(mi *ninja.MeshInfo, name string) *scene.Mesh {
	mesh := &scene.Mesh{Name: name}
	for _, v := range mi.Vertices {
		mesh.Vertices = append(mesh.Vertices, v.Position)
		mesh.Normals = append(mesh.Normals, v.Normal)
		if mi.HasVColor {
			mesh.Colors = append(mesh.Colors, scene.Color4(utils.ColorFloatFromNRGBA(v.Color)))
		}
		if mi.HasUV {
			mesh.TextureCoords = append(mesh.TextureCoords, mgl32.Vec3{v.UV.U, v.UV.V, 0})
		}
	}
	tris := mi.Triangles()
	for i := 0; i+2 < len(tris); i += 3 {
		mesh.Faces = append(mesh.Faces, scene.Face{int(tris[i]), int(tris[i+1]), int(tris[i+2])})
	}
	return mesh
}

// exportWeighted emits the skeleton as plain nodes and every mesh skinned to
// it under the scene root.
func (ctx *context) exportWeighted(obj *ninja.Object, sc *scene.Scene, parentMatrix mgl32.Mat4, parent *scene.Node) (*scene.Node, error) {
	ctx.nodes = NewNodeTable(obj, parentMatrix)
	nodes := make([]*scene.Node, ctx.nodes.Len())
	for _, e := range ctx.nodes.Entries {
		p := parent
		if e.Parent >= 0 {
			p = nodes[e.Parent]
		}
		n := scene.NewNode(e.Name, p)
		n.Transform = e.Local
		nodes[e.Index] = n

		if err := ctx.exportSkinnedAttach(e, sc); err != nil {
			return nil, errors.Wrapf(err, "object %q", e.Name)
		}
	}
	return nodes[0], nil
}

func (ctx *context) exportSkinnedAttach(e *NodeEntry, sc *scene.Scene) error {
	if e.Object.Attach == nil {
		return nil
	}
	ca, ok := e.Object.Attach.(*ninja.ChunkAttach)
	if !ok {
		ctx.log.Warn("skipping non chunk attach of weighted model",
			zap.String("object", e.Name), zap.Stringer("kind", e.Object.Attach.Kind()))
		return nil
	}
	if err := ctx.loadVertexChunks(ca.Vertex, e.Index, e.World); err != nil {
		return errors.Wrapf(err, "attach %q", ca.Name)
	}
	meshes, err := ctx.processPolyList(ca.Poly, 0, 0)
	if err != nil {
		return errors.Wrapf(err, "attach %q", ca.Name)
	}
	for i, em := range meshes {
		mesh := indexedMesh(em.Info, fmt.Sprintf("%s_mesh_%d", ca.Name, i))
		mat := materialToScene(em.Info.Material, fmt.Sprintf("%s_material_%d", ca.Name, i), ctx.textures, false)
		mesh.MaterialIndex = sc.AddMaterial(mat)
		mesh.Bones = ctx.meshBones(em.Weights)
		mi := sc.AddMesh(mesh)

		n := scene.NewNode(fmt.Sprintf("meshnode_%d", mi), sc.RootNode)
		n.MeshIndices = []int{mi}
		ctx.log.Debug("exported skinned mesh",
			zap.String("mesh", mesh.Name), zap.Int("vertices", mesh.VertexCount()), zap.Int("faces", len(mesh.Faces)))
	}
	return nil
}
