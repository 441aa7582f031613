package images

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Output formats recorded in Dimensions.Format.
const (
	FormatJPEG    = "jpeg"
	FormatPNG     = "png"
	FormatGIF     = "gif"
	FormatSVG     = "svg"
	FormatUnknown = "unknown"
)

// Dimensions describes a stored file. Width and height are zero when the
// image could not be decoded.
type Dimensions struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Variant is one resized copy of a stored image.
type Variant struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
}

// VariantSize is a named target width.
type VariantSize struct {
	Name  string
	Width int
}

// VariantSizes are generated for every decodable image, in this order.
var VariantSizes = []VariantSize{
	{Name: "thumbnail", Width: 300},
	{Name: "medium", Width: 600},
	{Name: "large", Width: 1200},
}

// Processed is a normalized image ready to be written.
type Processed struct {
	Data []byte
	Info Dimensions

	// img is the decoded picture used for variants; nil when the bytes
	// were kept as-is without decoding.
	img image.Image
}

// Decoded reports whether variants can be produced from p.
func (p *Processed) Decoded() bool { return p.img != nil }

// Processor re-encodes downloaded images.
type Processor struct {
	Quality        int
	VariantQuality int
}

// Normalize sniffs data and re-encodes it for the web. JPEG and PNG keep
// their format. BMP, TIFF and WebP become JPEG. GIF and SVG keep their
// bytes. Anything undecodable is returned unchanged with format unknown.
func (pr *Processor) Normalize(data []byte) *Processed {
	mt := mimetype.Detect(data)

	var (
		img image.Image
		err error
	)
	switch {
	case mt.Is("image/svg+xml"):
		return raw(data, FormatSVG)
	case mt.Is("image/gif"):
		img, err = gif.Decode(bytes.NewReader(data))
		if err != nil {
			return raw(data, FormatUnknown)
		}
		p := raw(data, FormatGIF)
		p.img = img
		p.Info.Width, p.Info.Height = img.Bounds().Dx(), img.Bounds().Dy()
		return p
	case mt.Is("image/png"):
		img, err = png.Decode(bytes.NewReader(data))
		if err != nil {
			return raw(data, FormatUnknown)
		}
		return pr.encoded(img, FormatPNG, pr.Quality, data)
	case mt.Is("image/jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case mt.Is("image/bmp"):
		img, err = bmp.Decode(bytes.NewReader(data))
	case mt.Is("image/tiff"):
		img, err = tiff.Decode(bytes.NewReader(data))
	case mt.Is("image/webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return raw(data, FormatUnknown)
	}
	if err != nil {
		return raw(data, FormatUnknown)
	}
	return pr.encoded(img, FormatJPEG, pr.Quality, data)
}

func (pr *Processor) encoded(img image.Image, format string, quality int, orig []byte) *Processed {
	out, err := encode(img, format, quality)
	if err != nil {
		return raw(orig, FormatUnknown)
	}
	b := img.Bounds()
	return &Processed{
		Data: out,
		Info: Dimensions{Width: b.Dx(), Height: b.Dy(), Format: format, Size: int64(len(out))},
		img:  img,
	}
}

func raw(data []byte, format string) *Processed {
	return &Processed{Data: data, Info: Dimensions{Format: format, Size: int64(len(data))}}
}

// Resize scales p to width, never enlarging, and encodes the result in
// p's format at the variant quality.
func (pr *Processor) Resize(p *Processed, width int) ([]byte, int, int, error) {
	if p.img == nil {
		return nil, 0, 0, fmt.Errorf("image was not decoded")
	}
	src := p.img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w == 0 || h == 0 {
		return nil, 0, 0, fmt.Errorf("empty image")
	}
	if width < w {
		h = (h*width + w/2) / w
		if h < 1 {
			h = 1
		}
		w = width
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), p.img, src, draw.Over, nil)

	out, err := encode(dst, p.Info.Format, pr.VariantQuality)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, w, h, nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case FormatGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("cannot encode format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten composites translucent images onto white, since JPEG has no
// alpha channel.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// Inspect reads the dimensions of an already stored file without
// re-encoding it.
func Inspect(data []byte) Dimensions {
	d := Dimensions{Format: FormatUnknown, Size: int64(len(data))}
	mt := mimetype.Detect(data)
	var (
		cfg image.Config
		err error
	)
	switch {
	case mt.Is("image/jpeg"):
		d.Format = FormatJPEG
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/png"):
		d.Format = FormatPNG
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/gif"):
		d.Format = FormatGIF
		cfg, err = gif.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/svg+xml"):
		d.Format = FormatSVG
		return d
	default:
		return d
	}
	if err != nil {
		d.Format = FormatUnknown
		return d
	}
	d.Width, d.Height = cfg.Width, cfg.Height
	return d
}
