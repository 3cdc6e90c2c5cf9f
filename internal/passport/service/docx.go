package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"text/template"
)

// ============================================================
// DOCX Renderer
// ============================================================

const (
	documentPart     = "word/document.xml"
	relsPart         = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"
	imageRelID       = "rIdPassportImage"
	emuPerPixel      = 9525
)

// rawXML вставляется в документ без экранирования.
type rawXML string

// EmbeddedImage: картинка для плейсхолдера {{.image}}.
type EmbeddedImage struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

func (img *EmbeddedImage) extension() string {
	switch img.Format {
	case "jpeg", "jpg":
		return "jpeg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}

func (img *EmbeddedImage) mediaName() string {
	return "media/passport_schema." + img.extension()
}

// DocxRenderer заполняет части word/*.xml шаблона через text/template.
// Плейсхолдеры пишутся как {{.num_cabinet}}, {{range .umk}}{{.name}}{{end}} и должны
// целиком лежать в одном текстовом фрагменте Word.
type DocxRenderer struct{}

func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

func (r *DocxRenderer) Render(tpl []byte, data map[string]any, img *EmbeddedImage) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(tpl), int64(len(tpl)))
	if err != nil {
		return nil, fmt.Errorf("open template archive: %w", err)
	}

	values := escapeValue(data).(map[string]any)
	if img != nil {
		values["image"] = drawingXML(img)
	}

	var (
		buf         bytes.Buffer
		hasDocument bool
		hasRels     bool
	)
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		switch {
		case isTemplatePart(f.Name):
			hasDocument = hasDocument || f.Name == documentPart
			content, err := readPart(f)
			if err != nil {
				return nil, err
			}
			out, err := executePart(f.Name, content, values)
			if err != nil {
				return nil, err
			}
			if err := writePart(zw, f.Name, out); err != nil {
				return nil, err
			}

		case f.Name == relsPart && img != nil:
			hasRels = true
			content, err := readPart(f)
			if err != nil {
				return nil, err
			}
			if err := writePart(zw, f.Name, addImageRelationship(content, img)); err != nil {
				return nil, err
			}

		case f.Name == contentTypesPart && img != nil:
			content, err := readPart(f)
			if err != nil {
				return nil, err
			}
			if err := writePart(zw, f.Name, addImageContentType(content, img)); err != nil {
				return nil, err
			}

		default:
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
		}
	}

	if !hasDocument {
		return nil, fmt.Errorf("template has no %s", documentPart)
	}

	if img != nil {
		if !hasRels {
			rels := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
				`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
			if err := writePart(zw, relsPart, addImageRelationship(rels, img)); err != nil {
				return nil, err
			}
		}
		if err := writePart(zw, path.Join("word", img.mediaName()), img.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize document: %w", err)
	}
	return buf.Bytes(), nil
}

// ============================================================
// Parts
// ============================================================

func isTemplatePart(name string) bool {
	if name == documentPart {
		return true
	}
	base := path.Base(name)
	return path.Dir(name) == "word" && strings.HasSuffix(base, ".xml") &&
		(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer"))
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func executePart(name string, content []byte, values map[string]any) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, values); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return out.Bytes(), nil
}

// ============================================================
// Escaping
// ============================================================

// escapeValue экранирует все строки контекста для вставки в XML.
func escapeValue(v any) any {
	switch t := v.(type) {
	case rawXML:
		return t
	case string:
		var b strings.Builder
		_ = xml.EscapeText(&b, []byte(t))
		return b.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = escapeValue(val)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, val := range t {
			out[i] = escapeValue(val).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = escapeValue(val)
		}
		return out
	default:
		return v
	}
}

// ============================================================
// Image embedding
// ============================================================

// drawingXML закрывает текущий текстовый run, вставляет run с картинкой и открывает новый.
func drawingXML(img *EmbeddedImage) rawXML {
	cx := img.Width * emuPerPixel
	cy := img.Height * emuPerPixel
	return rawXML(fmt.Sprintf(`</w:t></w:r><w:r><w:drawing>`+
		`<wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[1]d" cy="%[2]d"/>`+
		`<wp:docPr id="4001" name="Schema"/>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="0" name="schema.%[3]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:embed="%[4]s"/>`+
		`<a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline>`+
		`</w:drawing></w:r><w:r><w:t xml:space="preserve">`,
		cx, cy, img.extension(), imageRelID))
}

func addImageRelationship(rels []byte, img *EmbeddedImage) []byte {
	if bytes.Contains(rels, []byte(`Id="`+imageRelID+`"`)) {
		return rels
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`,
		imageRelID, img.mediaName())
	return insertBefore(rels, "</Relationships>", rel)
}

func addImageContentType(types []byte, img *EmbeddedImage) []byte {
	ext := img.extension()
	if bytes.Contains(bytes.ToLower(types), []byte(`extension="`+ext+`"`)) {
		return types
	}
	def := fmt.Sprintf(`<Default Extension="%s" ContentType="image/%s"/>`, ext, ext)
	return insertBefore(types, "</Types>", def)
}

func insertBefore(doc []byte, closing, fragment string) []byte {
	idx := bytes.LastIndex(doc, []byte(closing))
	if idx < 0 {
		return doc
	}
	out := make([]byte, 0, len(doc)+len(fragment))
	out = append(out, doc[:idx]...)
	out = append(out, fragment...)
	out = append(out, doc[idx:]...)
	return out
}
