package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode_SeedsOriginalsFromCatalog(t *testing.T) {
	n := NewNode("board-1", KindBoard, Point{X: 10, Y: 20})

	assert.Equal(t, 0, n.Rotation)
	assert.Equal(t, 120.0, n.OriginalWidth)
	assert.Equal(t, 25.0, n.OriginalHeight)
	assert.Equal(t, 120.0, n.Width)
	assert.Equal(t, 25.0, n.Height)
	assert.Equal(t, "Д", n.Label)
	assert.Equal(t, Point{X: 10, Y: 20}, n.Position)
}

func TestNewNode_UnknownKindUsesFallback(t *testing.T) {
	n := NewNode("x", Kind("aquarium"), Point{})

	assert.Equal(t, FallbackSize.Width, n.Width)
	assert.Equal(t, FallbackSize.Height, n.Height)
	assert.False(t, n.Kind.Known())
}

func TestFit_SwapsOnVerticalRotations(t *testing.T) {
	cases := []struct {
		rotation int
		vertical bool
	}{
		{0, false}, {15, false}, {75, false}, {90, true}, {105, false},
		{180, false}, {270, true}, {345, false},
	}

	for _, tc := range cases {
		n := Node{Rotation: tc.rotation, OriginalWidth: 60, OriginalHeight: 40}
		n.Fit()
		if tc.vertical {
			assert.Equal(t, 40.0, n.Width, "rotation %d", tc.rotation)
			assert.Equal(t, 60.0, n.Height, "rotation %d", tc.rotation)
		} else {
			assert.Equal(t, 60.0, n.Width, "rotation %d", tc.rotation)
			assert.Equal(t, 40.0, n.Height, "rotation %d", tc.rotation)
		}
		assert.Equal(t, tc.vertical, n.IsVertical())
	}
}

func TestNormalizeRotation(t *testing.T) {
	assert.Equal(t, 0, NormalizeRotation(360))
	assert.Equal(t, 345, NormalizeRotation(-15))
	assert.Equal(t, 90, NormalizeRotation(450))
	assert.Equal(t, 270, NormalizeRotation(-90))
}

func TestScene_Validate(t *testing.T) {
	good := Scene{Nodes: []Node{NewNode("a", KindStudentDesk, Point{})}}
	require.NoError(t, good.Validate())

	bad := good.Clone()
	bad.Nodes[0].Rotation = 90
	assert.Error(t, bad.Validate())

	odd := good.Clone()
	odd.Nodes[0].Rotation = 10
	assert.Error(t, odd.Validate())
}

func TestScene_CloneCanonicalEmpty(t *testing.T) {
	src := Scene{Nodes: []Node{NewNode("a", KindTV, Point{})}, Edges: []Edge{}}
	out := src.Clone()
	assert.Nil(t, out.Edges)

	out.Nodes[0].Label = "x"
	assert.NotEqual(t, "x", src.Nodes[0].Label)
}

func TestCatalog_WallIsNotRequired(t *testing.T) {
	wall, ok := CatalogEntry(KindWall)
	require.True(t, ok)
	assert.False(t, wall.RequiredInAggregate)

	required := 0
	for _, e := range Catalog() {
		if e.RequiredInAggregate {
			required++
		}
	}
	assert.Equal(t, 11, required)
}
