//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"fmt"
	"image"

	"github.com/jezek/xgb/xproto"
)

// xImageToRGBA converts a ZPixmap reply of 24 or 32 bits per pixel. Byte
// order follows the server setup. The alpha channel is forced opaque since
// root window pixels carry no meaningful alpha.
func xImageToRGBA(setup *xproto.SetupInfo, reply *xproto.GetImageReply, width, height int, kind string) (*image.RGBA, error) {
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%s has empty geometry", kind)
	}
	if reply == nil || len(reply.Data) == 0 {
		return nil, fmt.Errorf("%s pixels: empty image data", kind)
	}

	bpp := 0
	for _, format := range setup.PixmapFormats {
		if format.Depth == reply.Depth {
			bpp = int(format.BitsPerPixel) / 8
			break
		}
	}
	if bpp < 3 {
		return nil, fmt.Errorf("unsupported %s depth %d", kind, reply.Depth)
	}
	stride := len(reply.Data) / height
	if stride*height != len(reply.Data) || stride < width*bpp {
		return nil, fmt.Errorf("%s pixels: unexpected stride", kind)
	}
	msb := setup.ImageByteOrder == xproto.ImageOrderMSBFirst

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := reply.Data[y*stride:]
		for x := 0; x < width; x++ {
			px := row[x*bpp : x*bpp+bpp]
			var r, g, b byte
			switch {
			case msb && bpp == 4:
				r, g, b = px[1], px[2], px[3]
			case msb:
				r, g, b = px[0], px[1], px[2]
			default:
				b, g, r = px[0], px[1], px[2]
			}
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xFF
		}
	}
	return img, nil
}
