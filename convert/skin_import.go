package convert

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

var ErrUnknownBone = errors.New("bone does not name a scene node")

// meshData is a scene mesh converted to vertex chunks grouped by the bone
// node that owns them, plus the poly chunks drawing it.
type meshData struct {
	Name        string
	VertexCount int
	// bound to bones, placed through bone nodes instead of mesh nodes
	Skinned   bool
	FirstBone string
	LastBone  string
	Vertex    map[string][]*ninja.VertexChunk
	Poly      []ninja.PolyChunk
	Bounds    ninja.BoundingSphere

	handle   int
	reserved bool
	dropped  bool
}

type sortedBone struct {
	Bone  *scene.Bone
	Index int
}

type vertexBone struct {
	Bone   int // index into sorted bones
	Weight float32
}

// weightStatus classifies the batch of a bone at pos in a vertex bone
// sequence of length count.
func weightStatus(pos, count int) ninja.WeightStatus {
	switch {
	case pos == 0:
		return ninja.WeightStart
	case pos == count-1:
		return ninja.WeightEnd
	default:
		return ninja.WeightMiddle
	}
}

// sortedBones returns bones carrying weights in node preorder.
func (ctx *context) sortedBones(mesh *scene.Mesh) ([]sortedBone, error) {
	var result []sortedBone
	for _, b := range mesh.Bones {
		if !b.HasVertexWeights() {
			continue
		}
		e, ok := ctx.sceneNodes.Lookup(b.Name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownBone, "mesh %q bone %q", mesh.Name, b.Name)
		}
		result = append(result, sortedBone{Bone: b, Index: e.Index})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

func meshNormals(mesh *scene.Mesh) []mgl32.Vec3 {
	if mesh.HasNormals() {
		return mesh.Normals
	}
	normals := make([]mgl32.Vec3, mesh.VertexCount())
	for i := range normals {
		normals[i] = up
	}
	return normals
}

func (ctx *context) processMesh(sc *scene.Scene, mesh *scene.Mesh) (*meshData, error) {
	if err := validateMesh(mesh); err != nil {
		return nil, err
	}
	md := &meshData{
		Name:        mesh.Name,
		VertexCount: mesh.VertexCount(),
		Vertex:      make(map[string][]*ninja.VertexChunk),
	}
	bones, err := ctx.sortedBones(mesh)
	if err != nil {
		return nil, err
	}
	normals := meshNormals(mesh)

	var boundsMatrix mgl32.Mat4
	if len(bones) > 1 {
		md.Skinned = true
		md.FirstBone = bones[0].Bone.Name
		md.LastBone = bones[len(bones)-1].Bone.Name
		if err := ctx.weightedChunks(md, mesh, normals, bones); err != nil {
			return nil, err
		}
		boundsMatrix = bones[len(bones)-1].Bone.OffsetMatrix
	} else {
		boundsMatrix = mgl32.Ident4()
		name := ""
		if len(bones) == 1 {
			md.Skinned = true
			name = bones[0].Bone.Name
			md.FirstBone, md.LastBone = name, name
			boundsMatrix = bones[0].Bone.OffsetMatrix
		}
		md.Vertex[name] = []*ninja.VertexChunk{plainChunk(mesh, normals, boundsMatrix)}
	}

	md.Bounds = ninja.BoundingSphereFromPoints(mesh.Vertices)
	md.Bounds.Center = mgl32.TransformCoordinate(md.Bounds.Center, boundsMatrix)

	strips, err := buildStrips(mesh, 0)
	if err != nil {
		return nil, err
	}
	md.Poly = ctx.meshPolyChunks(sc, mesh, strips)
	return md, nil
}

// weightedChunks splits mesh vertices into per bone batches. Every vertex
// visits its bones in node order: the first batch starts the blend, the last
// one ends it. Vertices without weights belong fully to the last bone.
func (ctx *context) weightedChunks(md *meshData, mesh *scene.Mesh, normals []mgl32.Vec3, bones []sortedBone) error {
	weights := make([][]vertexBone, mesh.VertexCount())
	for bi, sb := range bones {
		for _, w := range sb.Bone.VertexWeights {
			if w.VertexID < 0 || w.VertexID >= len(weights) {
				return errors.Errorf("mesh %q bone %q: weight of vertex %d out of range", mesh.Name, sb.Bone.Name, w.VertexID)
			}
			weights[w.VertexID] = append(weights[w.VertexID], vertexBone{Bone: bi, Weight: w.Weight})
		}
	}
	unweighted := 0
	for v := range weights {
		if len(weights[v]) == 0 {
			weights[v] = []vertexBone{{Bone: len(bones) - 1, Weight: 1}}
			unweighted++
		}
	}
	if unweighted != 0 {
		ctx.log.Debug("vertices without weights bound to last bone",
			zap.String("mesh", mesh.Name), zap.Int("count", unweighted))
	}

	for bi, sb := range bones {
		var verts [3][]int
		var vweights [3][]float32
		for v, ws := range weights {
			for pos, w := range ws {
				if w.Bone != bi {
					continue
				}
				st := weightStatus(pos, len(ws))
				verts[st] = append(verts[st], v)
				vweights[st] = append(vweights[st], w.Weight)
			}
		}
		for _, st := range []ninja.WeightStatus{ninja.WeightStart, ninja.WeightMiddle, ninja.WeightEnd} {
			if len(verts[st]) == 0 {
				continue
			}
			vc := weightedChunk(mesh, normals, verts[st], vweights[st], sb.Bone.OffsetMatrix)
			vc.WeightStatus = st
			md.Vertex[sb.Bone.Name] = append(md.Vertex[sb.Bone.Name], vc)
		}
	}
	return nil
}

// weightedChunk transforms verts into bone space. verts are ascending, so the
// first one is the chunk offset.
func weightedChunk(mesh *scene.Mesh, normals []mgl32.Vec3, verts []int, weights []float32, m mgl32.Mat4) *ninja.VertexChunk {
	vc := ninja.NewVertexChunk(ninja.ChunkVertexNormalNinjaFlags)
	offset := verts[0]
	vc.IndexOffset = uint16(offset)
	vc.Vertices = make([]mgl32.Vec3, len(verts))
	vc.Normals = make([]mgl32.Vec3, len(verts))
	vc.NinjaFlags = make([]uint32, len(verts))
	for i, v := range verts {
		vc.Vertices[i] = mgl32.TransformCoordinate(mesh.Vertices[v], m)
		vc.Normals[i] = mgl32.TransformNormal(normals[v], m)
		vc.NinjaFlags[i] = ninja.PackWeight(weights[i], v-offset)
	}
	return vc
}

func plainChunk(mesh *scene.Mesh, normals []mgl32.Vec3, m mgl32.Mat4) *ninja.VertexChunk {
	t := ninja.ChunkVertex
	switch {
	case mesh.HasVertexColors():
		t = ninja.ChunkVertexDiffuse8
	case mesh.HasNormals():
		t = ninja.ChunkVertexNormal
	}
	vc := ninja.NewVertexChunk(t)
	for i, v := range mesh.Vertices {
		vc.Vertices = append(vc.Vertices, mgl32.TransformCoordinate(v, m))
		if vc.HasNormals() {
			vc.Normals = append(vc.Normals, mgl32.TransformNormal(normals[i], m))
		}
		if vc.HasDiffuse() {
			vc.Diffuse = append(vc.Diffuse, sceneColor(mesh.Colors[i]))
		}
	}
	return vc
}

// placed returns a copy of md with vertex chunks and strips moved to the
// cache range starting at start.
func (md *meshData) placed(start int) *meshData {
	r := *md
	r.Vertex = make(map[string][]*ninja.VertexChunk, len(md.Vertex))
	for name, chunks := range md.Vertex {
		moved := make([]*ninja.VertexChunk, len(chunks))
		for i, vc := range chunks {
			moved[i] = vc.Clone()
			moved[i].IndexOffset += uint16(start)
		}
		r.Vertex[name] = moved
	}
	r.Poly = ninja.ClonePolyChunks(md.Poly)
	for _, pc := range r.Poly {
		if s, ok := pc.(*ninja.StripChunk); ok {
			s.Shift(start)
		}
	}
	return &r
}

func (ctx *context) reserve(md *meshData) (*meshData, error) {
	start, handle, err := ctx.vcache.Reserve(md.VertexCount)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", md.Name)
	}
	r := md.placed(start)
	r.handle = handle
	r.reserved = true
	return r, nil
}

// importWeighted rebuilds the skeleton the scene bones name and hangs every
// mesh off its bone nodes.
func (ctx *context) importWeighted(sc *scene.Scene) (*ninja.Object, error) {
	ctx.sceneNodes = NewSceneNodeTable(sc.RootNode)
	ctx.vcache.Reset()

	meshes := make([]*meshData, len(sc.Meshes))
	refs := make(map[string]int)
	var order []string
	for i, mesh := range sc.Meshes {
		md, err := ctx.processMesh(sc, mesh)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
		meshes[i] = md
		for _, b := range mesh.Bones {
			if _, seen := refs[b.Name]; !seen {
				order = append(order, b.Name)
			}
			refs[b.Name]++
		}
	}

	root, err := ctx.skeletonRoot(sc, refs, order)
	if err != nil {
		return nil, err
	}
	ctx.log.Debug("importing skinned model", zap.String("root", root.Name), zap.Int("meshes", len(meshes)))

	skeleton := make(map[string]bool)
	var walk func(n *scene.Node)
	walk = func(n *scene.Node) {
		skeleton[n.Name] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	for _, md := range meshes {
		if !md.Skinned {
			continue
		}
		for bone := range md.Vertex {
			if !skeleton[bone] {
				md.dropped = true
				ctx.log.Warn("mesh bones are outside of skeleton root, mesh dropped",
					zap.String("mesh", md.Name), zap.String("bone", bone), zap.String("root", root.Name))
				break
			}
		}
	}

	return ctx.importSkinnedNode(root, meshes)
}

// skeletonRoot picks the top level node holding most bone references. Ties go
// to the node seen first.
func (ctx *context) skeletonRoot(sc *scene.Scene, refs map[string]int, order []string) (*scene.Node, error) {
	counts := make(map[*scene.Node]int)
	var candidates []*scene.Node
	for _, name := range order {
		e, ok := ctx.sceneNodes.Lookup(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownBone, "%q", name)
		}
		n := e.Node
		for n.Parent != nil && n.Parent != sc.RootNode {
			n = n.Parent
		}
		if _, seen := counts[n]; !seen {
			candidates = append(candidates, n)
		}
		counts[n] += refs[name]
	}
	if len(candidates) == 0 {
		return nil, errors.New("scene meshes reference no bones")
	}
	best := candidates[0]
	for _, n := range candidates[1:] {
		if counts[n] > counts[best] {
			best = n
		}
	}
	return best, nil
}

func (ctx *context) importSkinnedNode(n *scene.Node, meshes []*meshData) (*ninja.Object, error) {
	obj := newObject(n)

	var attach *ninja.ChunkAttach
	var handles []int
	add := func(md *meshData, chunks []*ninja.VertexChunk, last bool) {
		if attach == nil {
			attach = ninja.NewChunkAttach(ctx.names.Identifier("attach"))
			obj.Attach = attach
		}
		attach.Vertex = append(attach.Vertex, chunks...)
		if last {
			attach.Poly = append(attach.Poly, md.Poly...)
			attach.Bounds = mergeBounds(attach.Bounds, md.Bounds)
			handles = append(handles, md.handle)
		}
	}

	for i, md := range meshes {
		if !md.Skinned || md.dropped {
			continue
		}
		if _, ok := md.Vertex[n.Name]; !ok {
			continue
		}
		if md.FirstBone == n.Name {
			placed, err := ctx.reserve(md)
			if err != nil {
				return nil, err
			}
			meshes[i] = placed
			md = placed
		}
		if !md.reserved {
			ctx.log.Warn("mesh reached before its first bone, skipped",
				zap.String("mesh", md.Name), zap.String("node", n.Name))
			continue
		}
		add(md, md.Vertex[n.Name], md.LastBone == n.Name)
	}
	for _, mi := range n.MeshIndices {
		if mi < 0 || mi >= len(meshes) {
			return nil, errors.Errorf("node %q: mesh index %d out of range", n.Name, mi)
		}
		if meshes[mi].Skinned {
			continue
		}
		placed, err := ctx.reserve(meshes[mi])
		if err != nil {
			return nil, err
		}
		add(placed, placed.Vertex[""], true)
	}

	if attach != nil {
		attach.Vertex = ninja.MergeVertexChunks(attach.Vertex)
		if err := attach.Validate(); err != nil {
			return nil, errors.Wrapf(err, "node %q", n.Name)
		}
	}
	for _, h := range handles {
		if err := ctx.vcache.Release(h); err != nil {
			return nil, err
		}
	}

	for _, c := range n.Children {
		child, err := ctx.importSkinnedNode(c, meshes)
		if err != nil {
			return nil, err
		}
		obj.AddChild(collapseUnnamed(c, child))
	}
	return obj, nil
}

func mergeBounds(a, b ninja.BoundingSphere) ninja.BoundingSphere {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	return ninja.MergeBoundingSpheres(a, b)
}
