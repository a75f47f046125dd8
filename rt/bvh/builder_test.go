package bvh

import (
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTwoObjectsSplit(t *testing.T) {
	aabbs := [][2]mgl32.Vec3{
		{{-100, -1, -1}, {-98, 1, 1}},
		{{100, -1, -1}, {102, 1, 1}},
	}

	builder := &Builder{MaxLeafSize: 1}
	tree := builder.Build(aabbs)

	// Root, Left, Right
	if len(tree.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(tree.Nodes))
	}

	root := tree.Nodes[0]
	if root.Min.X() > -100 {
		t.Errorf("Root min X should be <= -100, got %f", root.Min.X())
	}
	if root.Max.X() < 100 {
		t.Errorf("Root max X should be >= 100, got %f", root.Max.X())
	}
	if root.Left == -1 || root.Right == -1 || root.Left == root.Right {
		t.Fatalf("Root should have two distinct children, got left=%d right=%d", root.Left, root.Right)
	}
	if !tree.Nodes[root.Left].IsLeaf() || !tree.Nodes[root.Right].IsLeaf() {
		t.Error("Children should be leaves")
	}
}

func TestSingleObject(t *testing.T) {
	tree := (&Builder{}).Build([][2]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}}})

	if len(tree.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(tree.Nodes))
	}
	root := tree.Nodes[0]
	if !root.IsLeaf() {
		t.Error("Root should be a leaf")
	}
	if root.LeafFirst != 0 || root.LeafCount != 1 || tree.Items[0] != 0 {
		t.Errorf("Leaf should reference object 0, got first=%d count=%d", root.LeafFirst, root.LeafCount)
	}
}

func TestEmptyBVH(t *testing.T) {
	tree := (&Builder{}).Build(nil)

	visited := 0
	tree.Traverse(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 10, func(item int, tMax float32) float32 {
		visited++
		return tMax
	})
	if visited != 0 {
		t.Errorf("Empty tree should not visit anything, visited %d", visited)
	}
}

func TestTraverseVisitsOnlyCrossedItems(t *testing.T) {
	// A row of unit boxes along X; the ray runs along +Z through x=5
	var aabbs [][2]mgl32.Vec3
	for i := 0; i < 10; i++ {
		x := float32(i)
		aabbs = append(aabbs, [2]mgl32.Vec3{{x, -0.5, 3}, {x + 0.9, 0.5, 4}})
	}
	tree := (&Builder{MaxLeafSize: 1}).Build(aabbs)

	var got []int
	tree.Traverse(mgl32.Vec3{5.5, 0, 0}, mgl32.Vec3{0, 0, 1}, 100, func(item int, tMax float32) float32 {
		got = append(got, item)
		return tMax
	})
	sort.Ints(got)
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("Expected only item 5, got %v", got)
	}

	// Too short to reach the boxes
	got = got[:0]
	tree.Traverse(mgl32.Vec3{5.5, 0, 0}, mgl32.Vec3{0, 0, 1}, 2, func(item int, tMax float32) float32 {
		got = append(got, item)
		return tMax
	})
	if len(got) != 0 {
		t.Errorf("Expected no items within tMax=2, got %v", got)
	}
}

func TestRayAABBAxisParallelOnFace(t *testing.T) {
	inv := mgl32.Vec3{safeInv(0), safeInv(0), safeInv(1)}
	// Origin lies exactly on the x=0 slab plane
	if !RayAABB(mgl32.Vec3{0, 0, -5}, inv, mgl32.Vec3{0, -1, -1}, mgl32.Vec3{1, 1, 1}, 10) {
		t.Error("Ray grazing the slab plane should be treated as inside")
	}
	if RayAABB(mgl32.Vec3{2, 0, -5}, inv, mgl32.Vec3{0, -1, -1}, mgl32.Vec3{1, 1, 1}, 10) {
		t.Error("Ray outside the X slab should miss")
	}
}
