package geometry

import (
	"room-passport/internal/scene/models"
)

// ============================================================
// Rotation
// ============================================================

type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

// PasteOffset: смещение вставленной копии по обеим осям.
const PasteOffset = 20.0

// Selection: множество идентификаторов выделенных узлов.
type Selection map[string]struct{}

func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// NextRotation возвращает угол после одного шага в заданном направлении.
func NextRotation(rotation int, dir Direction) int {
	rotation = models.NormalizeRotation(rotation)
	if dir == Clockwise {
		return (rotation + models.RotationStep) % 360
	}
	return (rotation - models.RotationStep + 360) % 360
}

// RotateNode поворачивает узел на один шаг. Габариты пересчитываются из исходных размеров,
// а при смене ориентации позиция сдвигается так, чтобы центр остался на месте.
func RotateNode(n models.Node, dir Direction) models.Node {
	wasVertical := n.IsVertical()
	n.Rotation = NextRotation(n.Rotation, dir)
	isVertical := n.IsVertical()

	dx := (n.OriginalHeight - n.OriginalWidth) / 2
	dy := (n.OriginalWidth - n.OriginalHeight) / 2
	switch {
	case isVertical && !wasVertical:
		n.Position.X -= dx
		n.Position.Y -= dy
	case !isVertical && wasVertical:
		n.Position.X += dx
		n.Position.Y += dy
	}

	n.Fit()
	return n
}

// Rotate поворачивает только выделенные узлы; исходный срез не изменяется.
func Rotate(nodes []models.Node, selected Selection, dir Direction) []models.Node {
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		if selected.Has(n.ID) {
			n = RotateNode(n, dir)
		}
		out[i] = n
	}
	return out
}

// ============================================================
// Clipboard & deletion
// ============================================================

// Copy возвращает копии выделенных узлов в порядке сцены.
func Copy(nodes []models.Node, selected Selection) []models.Node {
	var out []models.Node
	for _, n := range nodes {
		if selected.Has(n.ID) {
			out = append(out, n)
		}
	}
	return out
}

// Paste дописывает к сцене копии буфера со свежими id и смещением. Возвращает новые id.
func Paste(nodes, clipboard []models.Node, newID func(models.Kind) string) ([]models.Node, []string) {
	out := make([]models.Node, len(nodes), len(nodes)+len(clipboard))
	copy(out, nodes)

	ids := make([]string, 0, len(clipboard))
	for _, n := range clipboard {
		n.ID = newID(n.Kind)
		n.Position = models.Point{X: n.Position.X + PasteOffset, Y: n.Position.Y + PasteOffset}
		out = append(out, n)
		ids = append(ids, n.ID)
	}
	return out, ids
}

// Delete отбрасывает выделенные узлы.
func Delete(nodes []models.Node, selected Selection) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if !selected.Has(n.ID) {
			out = append(out, n)
		}
	}
	return out
}
