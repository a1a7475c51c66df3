package convert

import (
	"fmt"
	"regexp"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

var nodeNamePrefix = regexp.MustCompile(`^n[0-9]{3}_`)

// NodeName decorates object name with its preorder index.
func NodeName(index int, name string) string {
	return fmt.Sprintf("n%03d_%s", index, name)
}

// StripNodeName removes the index decoration NodeName adds. Names that do not
// carry the exact decoration are returned unchanged.
func StripNodeName(name string) string {
	if loc := nodeNamePrefix.FindStringIndex(name); loc != nil {
		return name[loc[1]:]
	}
	return name
}

type NodeEntry struct {
	Index  int
	Parent int // -1 for root
	Name   string
	Object *ninja.Object
	Local  mgl32.Mat4
	World  mgl32.Mat4
}

// NodeTable is the preorder list of objects with their transforms. Bone ids
// used in weights are indexes into this table.
type NodeTable struct {
	Entries []*NodeEntry
	byObj   map[*ninja.Object]*NodeEntry
}

func NewNodeTable(root *ninja.Object, parentMatrix mgl32.Mat4) *NodeTable {
	nt := &NodeTable{byObj: make(map[*ninja.Object]*NodeEntry)}
	var walk func(obj *ninja.Object, parent int, parentWorld mgl32.Mat4)
	walk = func(obj *ninja.Object, parent int, parentWorld mgl32.Mat4) {
		local := obj.LocalMatrix()
		e := &NodeEntry{
			Index:  len(nt.Entries),
			Parent: parent,
			Name:   NodeName(len(nt.Entries), obj.Name),
			Object: obj,
			Local:  local,
			World:  parentWorld.Mul4(local),
		}
		nt.Entries = append(nt.Entries, e)
		nt.byObj[obj] = e
		for _, c := range obj.Children {
			walk(c, e.Index, e.World)
		}
	}
	walk(root, -1, parentMatrix)
	return nt
}

func (nt *NodeTable) Len() int { return len(nt.Entries) }

func (nt *NodeTable) Entry(obj *ninja.Object) (*NodeEntry, bool) {
	e, ok := nt.byObj[obj]
	return e, ok
}

// BoneOffset is the inverse bind matrix of entry i, bind pose shifted by 0.0001 on x.
func (nt *NodeTable) BoneOffset(i int) mgl32.Mat4 {
	return mgl32.Translate3D(0.0001, 0, 0).Mul4(nt.Entries[i].World).Inv()
}

type SceneNodeEntry struct {
	Index int
	Node  *scene.Node
}

// SceneNodeTable indexes scene nodes by name in preorder. When names repeat
// the first node wins.
type SceneNodeTable struct {
	Nodes  []*scene.Node
	byName map[string]SceneNodeEntry
}

func NewSceneNodeTable(root *scene.Node) *SceneNodeTable {
	st := &SceneNodeTable{byName: make(map[string]SceneNodeEntry)}
	root.Walk(func(n *scene.Node) {
		if _, exists := st.byName[n.Name]; !exists {
			st.byName[n.Name] = SceneNodeEntry{Index: len(st.Nodes), Node: n}
		}
		st.Nodes = append(st.Nodes, n)
	})
	return st
}

func (st *SceneNodeTable) Lookup(name string) (SceneNodeEntry, bool) {
	e, ok := st.byName[name]
	return e, ok
}
