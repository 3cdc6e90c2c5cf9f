package models

import "fmt"

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64
	Height float64
}

// ============================================================
// Scene graph
// ============================================================

// Node: один размещённый в кабинете предмет.
type Node struct {
	ID             string
	Kind           Kind
	Position       Point
	Width          float64
	Height         float64
	Rotation       int
	OriginalWidth  float64
	OriginalHeight float64
	Label          string
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Scene struct {
	Nodes []Node
	Edges []Edge
}

// NewNode создаёт узел из каталога: исходные размеры берутся из таблицы размеров по умолчанию.
func NewNode(id string, kind Kind, position Point) Node {
	entry := Lookup(kind)
	n := Node{
		ID:             id,
		Kind:           kind,
		Position:       position,
		Rotation:       0,
		OriginalWidth:  entry.DefaultSize.Width,
		OriginalHeight: entry.DefaultSize.Height,
		Label:          entry.Symbol,
	}
	n.Fit()
	return n
}

// IsVertical сообщает, повернут ли узел на 90 или 270 градусов.
func (n Node) IsVertical() bool {
	return IsVerticalRotation(n.Rotation)
}

// Fit пересчитывает габариты из исходных размеров и угла поворота.
// Это единственное место, где меняются Width/Height.
func (n *Node) Fit() {
	if n.IsVertical() {
		n.Width, n.Height = n.OriginalHeight, n.OriginalWidth
		return
	}
	n.Width, n.Height = n.OriginalWidth, n.OriginalHeight
}

// Center возвращает геометрический центр габаритного прямоугольника.
func (n Node) Center() Point {
	return Point{X: n.Position.X + n.Width/2, Y: n.Position.Y + n.Height/2}
}

func IsVerticalRotation(rotation int) bool {
	r := rotation % 180
	if r < 0 {
		r = -r
	}
	return r == 90
}

// NormalizeRotation приводит угол к [0, 360).
func NormalizeRotation(rotation int) int {
	return ((rotation % 360) + 360) % 360
}

// ============================================================
// Invariants
// ============================================================

// Validate проверяет инвариант габаритов для всех узлов сцены.
func (s Scene) Validate() error {
	for _, n := range s.Nodes {
		if n.Rotation < 0 || n.Rotation >= 360 || n.Rotation%RotationStep != 0 {
			return fmt.Errorf("node %s: rotation %d out of range", n.ID, n.Rotation)
		}
		want := n
		want.Fit()
		if want.Width != n.Width || want.Height != n.Height {
			return fmt.Errorf("node %s: bounding box %vx%v does not match rotation %d of %vx%v",
				n.ID, n.Width, n.Height, n.Rotation, n.OriginalWidth, n.OriginalHeight)
		}
	}
	return nil
}

// Clone возвращает копию сцены, не разделяющую срезы с исходной. Пустые срезы становятся nil.
func (s Scene) Clone() Scene {
	return Scene{
		Nodes: append([]Node(nil), s.Nodes...),
		Edges: append([]Edge(nil), s.Edges...),
	}
}

// NodeByID ищет узел по идентификатору.
func (s Scene) NodeByID(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
