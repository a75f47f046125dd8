package bvh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is a flattened BVH node. Leaves have Left == Right == -1 and reference
// LeafCount items starting at LeafFirst in Tree.Items.
type Node struct {
	Min       mgl32.Vec3
	Max       mgl32.Vec3
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *Node) IsLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

type AABBItem struct {
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Centroid mgl32.Vec3
	Index    int
}

// Tree is a BVH over arbitrary bounded items (triangles for meshes).
type Tree struct {
	Nodes []Node
	Items []int
}

type Builder struct {
	// MaxLeafSize is the number of items a leaf may hold before it is split.
	MaxLeafSize int
}

func (b *Builder) Build(aabbs [][2]mgl32.Vec3) *Tree {
	tree := &Tree{}
	if len(aabbs) == 0 {
		return tree
	}

	leafSize := b.MaxLeafSize
	if leafSize <= 0 {
		leafSize = 4
	}

	items := make([]AABBItem, len(aabbs))
	for i, bounds := range aabbs {
		items[i] = AABBItem{
			Min:      bounds[0],
			Max:      bounds[1],
			Centroid: bounds[0].Add(bounds[1]).Mul(0.5),
			Index:    i,
		}
	}

	b.recursiveBuild(items, tree, leafSize)
	return tree
}

func (b *Builder) recursiveBuild(items []AABBItem, tree *Tree, leafSize int) int32 {
	idx := int32(len(tree.Nodes))
	tree.Nodes = append(tree.Nodes, Node{Left: -1, Right: -1, LeafFirst: -1, LeafCount: 0})

	minB := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	maxB := mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))}
	for _, it := range items {
		minB = mgl32.Vec3{min(minB.X(), it.Min.X()), min(minB.Y(), it.Min.Y()), min(minB.Z(), it.Min.Z())}
		maxB = mgl32.Vec3{max(maxB.X(), it.Max.X()), max(maxB.Y(), it.Max.Y()), max(maxB.Z(), it.Max.Z())}
	}

	tree.Nodes[idx].Min = minB
	tree.Nodes[idx].Max = maxB

	if len(items) <= leafSize {
		tree.Nodes[idx].LeafFirst = int32(len(tree.Items))
		tree.Nodes[idx].LeafCount = int32(len(items))
		for _, it := range items {
			tree.Items = append(tree.Items, it.Index)
		}
		return idx
	}

	// Split on the widest axis at the median centroid
	extent := maxB.Sub(minB)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})

	mid := len(items) / 2
	left := b.recursiveBuild(items[:mid], tree, leafSize)
	right := b.recursiveBuild(items[mid:], tree, leafSize)
	tree.Nodes[idx].Left = left
	tree.Nodes[idx].Right = right

	return idx
}

// Traverse visits every item whose node bounds are crossed by the ray within
// [0, tMax]. visit returns the new tMax (closest accepted hit so far), which
// prunes the remaining traversal.
func (t *Tree) Traverse(origin, dir mgl32.Vec3, tMax float32, visit func(item int, tMax float32) float32) {
	if t == nil || len(t.Nodes) == 0 {
		return
	}

	invDir := mgl32.Vec3{safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())}

	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.Nodes[ni]
		if !RayAABB(origin, invDir, node.Min, node.Max, tMax) {
			continue
		}

		if node.IsLeaf() {
			for i := node.LeafFirst; i < node.LeafFirst+node.LeafCount; i++ {
				tMax = visit(t.Items[i], tMax)
			}
			continue
		}
		stack = append(stack, node.Left, node.Right)
	}
}

// RayAABB is the slab test. invDir components may be +-Inf for axis-parallel rays.
func RayAABB(origin, invDir, bMin, bMax mgl32.Vec3, tMax float32) bool {
	tNear := float32(0)
	tFar := tMax
	for axis := 0; axis < 3; axis++ {
		t0 := (bMin[axis] - origin[axis]) * invDir[axis]
		t1 := (bMax[axis] - origin[axis]) * invDir[axis]
		// 0 * Inf yields NaN when the origin lies on a slab plane; treat as inside
		if t0 != t0 {
			t0 = float32(math.Inf(-1))
		}
		if t1 != t1 {
			t1 = float32(math.Inf(1))
		}
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

func safeInv(v float32) float32 {
	if v == 0 {
		return float32(math.Inf(1))
	}
	return 1.0 / v
}
