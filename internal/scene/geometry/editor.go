package geometry

import (
	"fmt"

	"room-passport/internal/scene/models"

	"github.com/google/uuid"
)

// ============================================================
// Editor State
// ============================================================

// Editor: состояние одного сеанса редактирования. Каждый метод возвращает новое
// состояние и не трогает исходное.
type Editor struct {
	Scene     models.Scene
	Selection Selection
	Clipboard []models.Node
	NewID     func(models.Kind) string
}

func NewEditor(scene models.Scene) Editor {
	return Editor{
		Scene:     scene.Clone(),
		Selection: NewSelection(),
		NewID:     DefaultNodeID,
	}
}

// DefaultNodeID формирует id вида "<type>-<uuid>".
func DefaultNodeID(kind models.Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}

func (e Editor) with(scene models.Scene, sel Selection) Editor {
	e.Scene = scene
	e.Selection = sel
	return e
}

func (e Editor) idFunc() func(models.Kind) string {
	if e.NewID != nil {
		return e.NewID
	}
	return DefaultNodeID
}

// Place добавляет новый предмет каталога в точку position.
func (e Editor) Place(kind models.Kind, position models.Point) (Editor, string) {
	scene := e.Scene.Clone()
	node := models.NewNode(e.idFunc()(kind), kind, position)
	scene.Nodes = append(scene.Nodes, node)
	return e.with(scene, e.Selection.clone()), node.ID
}

// Select заменяет выделение.
func (e Editor) Select(ids ...string) Editor {
	return e.with(e.Scene, NewSelection(ids...))
}

func (e Editor) ClearSelection() Editor {
	return e.with(e.Scene, NewSelection())
}

func (e Editor) Rotate(dir Direction) Editor {
	scene := models.Scene{
		Nodes: Rotate(e.Scene.Nodes, e.Selection, dir),
		Edges: append([]models.Edge(nil), e.Scene.Edges...),
	}
	return e.with(scene, e.Selection.clone())
}

// Copy кладёт выделенные узлы в буфер. Пустое выделение буфер не очищает.
func (e Editor) Copy() Editor {
	copied := Copy(e.Scene.Nodes, e.Selection)
	if len(copied) > 0 {
		e.Clipboard = copied
	}
	return e.with(e.Scene.Clone(), e.Selection.clone())
}

func (e Editor) Paste() Editor {
	if len(e.Clipboard) == 0 {
		return e
	}
	nodes, _ := Paste(e.Scene.Nodes, e.Clipboard, e.idFunc())
	scene := models.Scene{Nodes: nodes, Edges: append([]models.Edge(nil), e.Scene.Edges...)}
	return e.with(scene, e.Selection.clone())
}

func (e Editor) Delete() Editor {
	scene := models.Scene{
		Nodes: Delete(e.Scene.Nodes, e.Selection),
		Edges: append([]models.Edge(nil), e.Scene.Edges...),
	}
	return e.with(scene, NewSelection())
}
