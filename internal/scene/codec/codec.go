package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"room-passport/internal/scene/geometry"
	"room-passport/internal/scene/models"
)

// ============================================================
// Wire format
// ============================================================

// ErrInvalidStructure: документ не JSON-объект или nodes не является списком.
var ErrInvalidStructure = errors.New("invalid scene structure")

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireData struct {
	Label          string  `json:"label"`
	Rotation       int     `json:"rotation"`
	OriginalWidth  float64 `json:"originalWidth"`
	OriginalHeight float64 `json:"originalHeight"`
}

type wireStyle struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireNode struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Position wirePoint `json:"position"`
	Data     wireData  `json:"data"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Style    wireStyle `json:"style"`
}

type wireScene struct {
	Nodes []wireNode    `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

// ============================================================
// Export
// ============================================================

// Export сериализует сцену в формат файла импорта/экспорта.
func Export(scene models.Scene) ([]byte, error) {
	out := wireScene{
		Nodes: make([]wireNode, 0, len(scene.Nodes)),
		Edges: scene.Edges,
	}
	if out.Edges == nil {
		out.Edges = []models.Edge{}
	}

	for _, n := range scene.Nodes {
		out.Nodes = append(out.Nodes, wireNode{
			ID:       n.ID,
			Type:     string(n.Kind),
			Position: wirePoint{X: n.Position.X, Y: n.Position.Y},
			Data: wireData{
				Label:          n.Label,
				Rotation:       n.Rotation,
				OriginalWidth:  n.OriginalWidth,
				OriginalHeight: n.OriginalHeight,
			},
			Width:  n.Width,
			Height: n.Height,
			Style:  wireStyle{Width: n.Width, Height: n.Height},
		})
	}

	return json.Marshal(out)
}

// ExportFileName: имя скачиваемого файла для даты now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("schema_%s.json", now.Format("2006-01-02"))
}

// ============================================================
// Import
// ============================================================

type Issue struct {
	Index   int
	NodeID  string
	Message string
}

// ImportReport перечисляет всё, что пришлось достроить или отбросить при импорте.
type ImportReport struct {
	Issues  []Issue
	Dropped int
}

func (r *ImportReport) add(index int, id, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Index: index, NodeID: id, Message: fmt.Sprintf(format, args...)})
}

// Import разбирает недоверенный документ сцены. Ошибка возвращается только если документ
// целиком непригоден; отдельные узлы достраиваются по умолчаниям.
func Import(data []byte) (models.Scene, ImportReport, error) {
	var report ImportReport

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Scene{}, report, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	rawNodes, ok := doc["nodes"]
	if !ok {
		return models.Scene{}, report, fmt.Errorf("%w: nodes missing", ErrInvalidStructure)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawNodes, &items); err != nil || isNull(rawNodes) {
		return models.Scene{}, report, fmt.Errorf("%w: nodes is not a list", ErrInvalidStructure)
	}

	var scene models.Scene
	for i, item := range items {
		node, ok := importNode(i, item, &report)
		if !ok {
			report.Dropped++
			continue
		}
		scene.Nodes = append(scene.Nodes, node)
	}

	if rawEdges, ok := doc["edges"]; ok && !isNull(rawEdges) {
		var edges []models.Edge
		if err := json.Unmarshal(rawEdges, &edges); err != nil {
			report.add(-1, "", "edges ignored: %v", err)
		} else if len(edges) > 0 {
			scene.Edges = edges
		}
	}

	return scene, report, nil
}

// IsNodeList сообщает, есть ли в документе список nodes; используется для проверки
// сохранённых схем без полного разбора.
func IsNodeList(data []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	raw, ok := doc["nodes"]
	if !ok || isNull(raw) {
		return false
	}
	var items []json.RawMessage
	return json.Unmarshal(raw, &items) == nil
}

func importNode(index int, raw json.RawMessage, report *ImportReport) (models.Node, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		report.add(index, "", "node is not an object")
		return models.Node{}, false
	}

	id, _ := obj["id"].(string)
	kind, _ := obj["type"].(string)
	if kind == "" {
		report.add(index, id, "node has no type")
		return models.Node{}, false
	}
	if id == "" {
		id = geometry.DefaultNodeID(models.Kind(kind))
		report.add(index, id, "missing id replaced")
	}
	if !models.Kind(kind).Known() {
		report.add(index, id, "unknown type %q, fallback size used", kind)
	}

	data := object(obj["data"])
	style := object(obj["style"])
	position := object(obj["position"])
	fallback := models.Lookup(models.Kind(kind)).DefaultSize

	width := firstPositive(fallback.Width, obj["width"], style["width"])
	height := firstPositive(fallback.Height, obj["height"], style["height"])

	rotation := 0
	if r, ok := number(data["rotation"]); ok {
		switch {
		case math.Abs(r) > maxRotation:
			report.add(index, id, "rotation %v out of range, reset to 0", r)
		default:
			rotation = snapRotation(r)
			if float64(rotation) != r {
				report.add(index, id, "rotation %v normalised to %d", r, rotation)
			}
		}
	}
	vertical := models.IsVerticalRotation(rotation)

	// исходные размеры доверяем, иначе восстанавливаем из текущих габаритов
	originalWidth, originalHeight := width, height
	if vertical {
		originalWidth, originalHeight = height, width
	}
	if v, ok := number(data["originalWidth"]); ok && v > 0 {
		originalWidth = v
	}
	if v, ok := number(data["originalHeight"]); ok && v > 0 {
		originalHeight = v
	}

	x, _ := number(position["x"])
	y, _ := number(position["y"])
	label, _ := data["label"].(string)

	node := models.Node{
		ID:             id,
		Kind:           models.Kind(kind),
		Position:       models.Point{X: x, Y: y},
		Rotation:       rotation,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		Label:          label,
	}
	node.Fit()
	return node, true
}

// ============================================================
// Helpers
// ============================================================

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// firstPositive возвращает первое положительное число из values либо fallback.
func firstPositive(fallback float64, values ...any) float64 {
	for _, v := range values {
		if f, ok := number(v); ok && f > 0 {
			return f
		}
	}
	return fallback
}

// maxRotation: значения по модулю больше считаются мусором, а не поворотом.
const maxRotation = 1e9

// snapRotation приводит шаги к полному обороту до умножения, чтобы не переполнить int.
func snapRotation(r float64) int {
	steps := math.Mod(math.Round(r/models.RotationStep), 360/models.RotationStep)
	return models.NormalizeRotation(int(steps) * models.RotationStep)
}
