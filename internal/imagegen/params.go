package imagegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/DreamFlyCoder/plugin/internal/domain"
)

const (
	MinDimension = 512
	MaxDimension = 1440

	MinImageCount = 1
	MaxImageCount = 4
)

// ClampSize parses "W*H" and clamps each side into [MinDimension, MaxDimension].
// The boolean reports whether the value had to be corrected. Sizes that do
// not parse fall back to the default size.
func ClampSize(size string) (string, bool) {
	w, h, ok := parseSize(size)
	if !ok {
		return domain.DefaultImageSize, strings.TrimSpace(size) != domain.DefaultImageSize
	}
	cw := lo.Clamp(w, MinDimension, MaxDimension)
	ch := lo.Clamp(h, MinDimension, MaxDimension)
	clamped := fmt.Sprintf("%d*%d", cw, ch)
	return clamped, cw != w || ch != h || clamped != strings.TrimSpace(size)
}

func parseSize(size string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(size), "*")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// NormalizeParams returns the parameters actually sent to the service. The
// input is a copy, so the stored config keeps its raw values.
func NormalizeParams(p domain.GenerationParams) (domain.GenerationParams, bool) {
	out := p
	size, sizeChanged := ClampSize(p.Size)
	out.Size = size
	if out.N == 0 {
		out.N = domain.DefaultImageCount
	}
	out.N = lo.Clamp(out.N, MinImageCount, MaxImageCount)
	out.Style = lo.Ternary(strings.TrimSpace(p.Style) == "", domain.DefaultStyle, strings.TrimSpace(p.Style))
	out.Quality = lo.Ternary(strings.TrimSpace(p.Quality) == "", domain.DefaultQuality, strings.TrimSpace(p.Quality))
	return out, sizeChanged || out.N != p.N
}
