package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
)

// ============================================================
// Image sizing
// ============================================================

// DefaultImageWidth: ширина превью в документе, шаблоны не масштабируют картинки сами.
const DefaultImageWidth = 650

type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// DecodeImageInfo читает только заголовок изображения.
func DecodeImageInfo(data []byte) (ImageInfo, error) {
	return ReadImageInfo(bytes.NewReader(data))
}

// ReadImageInfo читает из r заголовок, не загружая изображение целиком.
func ReadImageInfo(r io.Reader) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("image has empty size %dx%d", cfg.Width, cfg.Height)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// DesiredHeight сохраняет пропорции при фиксированной ширине.
func DesiredHeight(width, height, desiredWidth int) int {
	aspect := float64(width) / float64(height)
	return int(math.Round(float64(desiredWidth) / aspect))
}
