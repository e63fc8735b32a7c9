package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	// декодеры форматов, которые принимаются при загрузке
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSize - целевой размер после обработки
type ImageSize struct {
	Name   string
	Width  int
	Height int
}

var (
	SizeUserPhoto = ImageSize{Name: "user", Width: 500, Height: 500}
	SizeTourImage = ImageSize{Name: "tour", Width: 2000, Height: 1333}
)

const DefaultQuality = 90

// Processor handles image processing operations
type Processor struct {
	quality int // JPEG quality (1-100)
}

// NewProcessor creates a new image processor
func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{
		quality: quality,
	}
}

// ProcessImage декодирует изображение, заполняет им кадр size целиком
// (лишнее по краям обрезается по центру) и кодирует в JPEG.
func (p *Processor) ProcessImage(reader io.Reader, size ImageSize) ([]byte, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.cover(img, size.Width, size.Height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// cover масштабирует с сохранением пропорций так, чтобы изображение покрыло
// width x height, и вырезает центр
func (p *Processor) cover(img image.Image, width, height int) image.Image {
	src := img.Bounds()
	srcW, srcH := src.Dx(), src.Dy()

	crop := src
	if srcW*height > srcH*width {
		// шире нужного - режем по бокам
		w := srcH * width / height
		x0 := src.Min.X + (srcW-w)/2
		crop = image.Rect(x0, src.Min.Y, x0+w, src.Max.Y)
	} else if srcW*height < srcH*width {
		h := srcW * height / width
		y0 := src.Min.Y + (srcH-h)/2
		crop = image.Rect(src.Min.X, y0, src.Max.X, y0+h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// GetImageDimensions returns the dimensions of an image
func GetImageDimensions(reader io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
