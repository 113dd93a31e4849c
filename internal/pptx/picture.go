package pptx

import (
	"fmt"
	"strings"
)

// Crop is a source rectangle inset in thousandths of a percent, as used by a:srcRect.
type Crop struct {
	Left, Top, Right, Bottom int
}

// CropToFill returns the crop that makes an image of imgW x imgH cover the
// bounds without distortion, trimming equally from both sides of the
// overflowing dimension.
func CropToFill(imgW, imgH int, bounds Rect) Crop {
	if imgW <= 0 || imgH <= 0 || bounds.CX <= 0 || bounds.CY <= 0 {
		return Crop{}
	}
	imgAspect := float64(imgW) / float64(imgH)
	phAspect := float64(bounds.CX) / float64(bounds.CY)

	if phAspect > imgAspect {
		// image is taller than the frame
		v := int((1 - imgAspect/phAspect) / 2 * 100000)
		return Crop{Top: v, Bottom: v}
	}
	v := int((1 - phAspect/imgAspect) / 2 * 100000)
	return Crop{Left: v, Right: v}
}

type pictureBody struct {
	relID string
	crop  Crop
}

// InsertPicture replaces the placeholder with a PNG picture of the given pixel
// size, cropped to fill the placeholder bounds.
func (sh *Shape) InsertPicture(png []byte, width, height int) error {
	if len(png) == 0 {
		return fmt.Errorf("empty image data")
	}
	s := sh.slide
	media := s.pres.addPart("ppt/media/image", ".png", png, "")
	sh.body = &pictureBody{
		relID: s.addRel(relTypeImage, media),
		crop:  CropToFill(width, height, sh.Placeholder.Bounds),
	}
	return nil
}

// PictureCrop returns the crop of an inserted picture.
func (sh *Shape) PictureCrop() (Crop, bool) {
	if p, ok := sh.body.(*pictureBody); ok {
		return p.crop, true
	}
	return Crop{}, false
}

func (p *pictureBody) write(b *strings.Builder, sh *Shape) {
	b.WriteString(`<p:pic><p:nvPicPr>`)
	sh.writeCNvPr(b)
	b.WriteString(`<p:cNvPicPr><a:picLocks noGrp="1" noChangeAspect="1"/></p:cNvPicPr>`)
	sh.writeNvPr(b)
	b.WriteString(`</p:nvPicPr><p:blipFill>`)
	fmt.Fprintf(b, `<a:blip r:embed="%s"/>`, p.relID)

	b.WriteString(`<a:srcRect`)
	if p.crop.Left != 0 {
		fmt.Fprintf(b, ` l="%d"`, p.crop.Left)
	}
	if p.crop.Top != 0 {
		fmt.Fprintf(b, ` t="%d"`, p.crop.Top)
	}
	if p.crop.Right != 0 {
		fmt.Fprintf(b, ` r="%d"`, p.crop.Right)
	}
	if p.crop.Bottom != 0 {
		fmt.Fprintf(b, ` b="%d"`, p.crop.Bottom)
	}
	b.WriteString(`/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr>`)
	if sh.Placeholder.boundsKnown {
		writeXfrm(b, "a:xfrm", sh.Placeholder.Bounds)
	}
	b.WriteString(`</p:spPr></p:pic>`)
}
