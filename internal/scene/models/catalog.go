package models

// ============================================================
// Furniture Catalog
// ============================================================

type Kind string

const (
	KindBoard            Kind = "board"
	KindStudentDesk      Kind = "studentDesk"
	KindStudentChair     Kind = "studentChair"
	KindTeacherDesk      Kind = "teacherDesk"
	KindTeacherChair     Kind = "teacherChair"
	KindWindow           Kind = "window"
	KindCabinetFurniture Kind = "cabinetFurniture"
	KindComputer         Kind = "computer"
	KindTV               Kind = "tv"
	KindSocket           Kind = "socket"
	KindWall             Kind = "wall"
	KindDoor             Kind = "door"
)

// RotationStep: шаг поворота в градусах.
const RotationStep = 15

// FallbackSize используется для типов, которых нет в каталоге.
var FallbackSize = Size{Width: 100, Height: 50}

// Entry описывает тип предмета: один общий рендерер и агрегатор читают только эту таблицу.
type Entry struct {
	Kind                Kind
	Title               string
	Symbol              string
	DefaultSize         Size
	RequiredInAggregate bool
	Fill                string
	Stroke              string
}

var catalog = []Entry{
	{Kind: KindBoard, Title: "Доска", Symbol: "Д", DefaultSize: Size{120, 25}, RequiredInAggregate: true, Fill: "#2E7D32", Stroke: "#1B5E20"},
	{Kind: KindStudentDesk, Title: "Парта ученика", Symbol: "У", DefaultSize: Size{60, 40}, RequiredInAggregate: true, Fill: "#D7B98E", Stroke: "#8D6E63"},
	{Kind: KindStudentChair, Title: "Стул ученика", Symbol: "У", DefaultSize: Size{30, 30}, RequiredInAggregate: true, Fill: "#BCAAA4", Stroke: "#6D4C41"},
	{Kind: KindTeacherDesk, Title: "Стол преподавателя", Symbol: "П", DefaultSize: Size{80, 50}, RequiredInAggregate: true, Fill: "#A1887F", Stroke: "#4E342E"},
	{Kind: KindTeacherChair, Title: "Стул преподавателя", Symbol: "П", DefaultSize: Size{40, 40}, RequiredInAggregate: true, Fill: "#8D6E63", Stroke: "#3E2723"},
	{Kind: KindWindow, Title: "Окно", Symbol: "", DefaultSize: Size{80, 20}, RequiredInAggregate: true, Fill: "#B3E5FC", Stroke: "#0288D1"},
	{Kind: KindCabinetFurniture, Title: "Шкаф", Symbol: "Ш", DefaultSize: Size{40, 80}, RequiredInAggregate: true, Fill: "#FFE0B2", Stroke: "#E65100"},
	{Kind: KindComputer, Title: "Компьютер", Symbol: "ПК", DefaultSize: Size{30, 30}, RequiredInAggregate: true, Fill: "#CFD8DC", Stroke: "#37474F"},
	{Kind: KindTV, Title: "Телевизор", Symbol: "Т", DefaultSize: Size{60, 40}, RequiredInAggregate: true, Fill: "#90A4AE", Stroke: "#263238"},
	{Kind: KindSocket, Title: "Розетка", Symbol: "Я", DefaultSize: Size{20, 20}, RequiredInAggregate: true, Fill: "#FFF59D", Stroke: "#F9A825"},
	{Kind: KindWall, Title: "Стена", Symbol: "", DefaultSize: Size{60, 15}, RequiredInAggregate: false, Fill: "#616161", Stroke: "#212121"},
	{Kind: KindDoor, Title: "Дверь", Symbol: "Д", DefaultSize: Size{30, 60}, RequiredInAggregate: true, Fill: "#FFCC80", Stroke: "#5D4037"},
}

var catalogIndex = func() map[Kind]Entry {
	idx := make(map[Kind]Entry, len(catalog))
	for _, e := range catalog {
		idx[e.Kind] = e
	}
	return idx
}()

// Catalog возвращает копию таблицы в порядке палитры редактора.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogEntry ищет тип в каталоге.
func CatalogEntry(kind Kind) (Entry, bool) {
	e, ok := catalogIndex[kind]
	return e, ok
}

// Lookup возвращает запись каталога или запись с размером по умолчанию для неизвестного типа.
func Lookup(kind Kind) Entry {
	if e, ok := catalogIndex[kind]; ok {
		return e
	}
	return Entry{
		Kind:        kind,
		Title:       string(kind),
		DefaultSize: FallbackSize,
		Fill:        "#EEEEEE",
		Stroke:      "#9E9E9E",
	}
}

// Known сообщает, есть ли тип в каталоге.
func (k Kind) Known() bool {
	_, ok := catalogIndex[k]
	return ok
}
