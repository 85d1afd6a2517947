package domain

import (
	"fmt"
	"strings"

	"github.com/Maciekds1981/kolorowanki/pkg/zip"
)

// Quality enumerates the image quality levels accepted by the image API.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityAuto   Quality = "auto"
)

const (
	DefaultQuality  = QualityHigh
	DefaultSizePx   = 1024
	MinVariants     = 1
	MaxVariants     = 6
	DefaultVariants = 1

	ImageMIME       = "image/png"
	ArchiveMIME     = "application/zip"
	ArchiveFileName = "coloring_variants.zip"
)

// SupportedSizes lists the square edge lengths, in pixels, a batch may request.
var SupportedSizes = []int{512, 1024}

// ParseQuality sanitizes user input. An empty value resolves to DefaultQuality.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case "":
		return DefaultQuality, nil
	case QualityLow, QualityMedium, QualityHigh, QualityAuto:
		return q, nil
	default:
		return "", fmt.Errorf("%w: %w %q", ErrValidation, ErrUnsupportedQuality, s)
	}
}

// ValidSize reports whether px is one of SupportedSizes.
func ValidSize(px int) bool {
	for _, s := range SupportedSizes {
		if s == px {
			return true
		}
	}
	return false
}

// SizeToken renders px as the "{px}x{px}" token the image API expects.
func SizeToken(px int) string {
	return fmt.Sprintf("%dx%d", px, px)
}

// VariantFileName names the download for a 1-based variant ordinal.
func VariantFileName(ordinal int) string {
	return fmt.Sprintf("coloring_variant_%02d.png", ordinal)
}

// Artifact is the decoded image produced by one successful variant.
type Artifact struct {
	Ordinal int
	Data    []byte
}

func (a Artifact) FileName() string {
	return VariantFileName(a.Ordinal)
}

// VariantOutcome is the result of one variant in a batch. Exactly one of
// Artifact and Err is set.
type VariantOutcome struct {
	Ordinal  int
	Artifact *Artifact
	Err      error
}

func (o VariantOutcome) OK() bool {
	return o.Err == nil && o.Artifact != nil
}

// Successes collects the artifacts of successful outcomes in ordinal order.
func Successes(outcomes []VariantOutcome) []Artifact {
	var out []Artifact
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, *o.Artifact)
		}
	}
	return out
}

// BuildArchive packs artifacts into a zip archive, one entry per artifact
// named after its ordinal.
func BuildArchive(artifacts []Artifact) ([]byte, error) {
	assets := make([]zip.Asset, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Ordinal < 1 {
			return nil, fmt.Errorf("archive: invalid ordinal %d", a.Ordinal)
		}
		if len(a.Data) == 0 {
			return nil, fmt.Errorf("archive: %s is empty", a.FileName())
		}
		assets = append(assets, zip.Asset{Filename: a.FileName(), Data: a.Data})
	}
	return zip.ArchiveAssets(assets)
}
