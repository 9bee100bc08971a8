package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/five82/avdecode/internal/frame"
)

// pixFormat describes how a decoder pixel format is delivered.
type pixFormat struct {
	chroma frame.ChromaSampling
	depth  int
	// target is the planar format requested from the y4m muxer.
	target string
}

var pixFormats = map[string]pixFormat{
	"yuv420p":     {frame.Cs420, 8, "yuv420p"},
	"yuvj420p":    {frame.Cs420, 8, "yuv420p"},
	"nv12":        {frame.Cs420, 8, "yuv420p"},
	"nv21":        {frame.Cs420, 8, "yuv420p"},
	"yuv422p":     {frame.Cs422, 8, "yuv422p"},
	"yuvj422p":    {frame.Cs422, 8, "yuv422p"},
	"nv16":        {frame.Cs422, 8, "yuv422p"},
	"yuv444p":     {frame.Cs444, 8, "yuv444p"},
	"yuvj444p":    {frame.Cs444, 8, "yuv444p"},
	"nv24":        {frame.Cs444, 8, "yuv444p"},
	"yuv420p10le": {frame.Cs420, 10, "yuv420p10le"},
	"yuv420p10be": {frame.Cs420, 10, "yuv420p10le"},
	"p010le":      {frame.Cs420, 10, "yuv420p10le"},
	"yuv422p10le": {frame.Cs422, 10, "yuv422p10le"},
	"yuv422p10be": {frame.Cs422, 10, "yuv422p10le"},
	"yuv444p10le": {frame.Cs444, 10, "yuv444p10le"},
	"yuv444p10be": {frame.Cs444, 10, "yuv444p10le"},
	"yuv420p12le": {frame.Cs420, 12, "yuv420p12le"},
	"yuv420p12be": {frame.Cs420, 12, "yuv420p12le"},
	"yuv422p12le": {frame.Cs422, 12, "yuv422p12le"},
	"yuv422p12be": {frame.Cs422, 12, "yuv422p12le"},
	"yuv444p12le": {frame.Cs444, 12, "yuv444p12le"},
	"yuv444p12be": {frame.Cs444, 12, "yuv444p12le"},
	"yuv420p16le": {frame.Cs420, 16, "yuv420p16le"},
	"p016le":      {frame.Cs420, 16, "yuv420p16le"},
	"yuv422p16le": {frame.Cs422, 16, "yuv422p16le"},
	"yuv444p16le": {frame.Cs444, 16, "yuv444p16le"},
	"gray":        {frame.Cs400, 8, "gray"},
	"gray10le":    {frame.Cs400, 10, "gray10le"},
	"gray12le":    {frame.Cs400, 12, "gray12le"},
	"gray16le":    {frame.Cs400, 16, "gray16le"},
}

// lookupPixFmt resolves a decoder pixel format name.
func lookupPixFmt(name string) (pixFormat, error) {
	if pf, ok := pixFormats[name]; ok {
		return pf, nil
	}
	if isRGB(name) {
		return pixFormat{}, fmt.Errorf("pixel format %s is RGB, only YUV and gray sources are supported", name)
	}
	return pixFormat{}, fmt.Errorf("unsupported pixel format %q", name)
}

func isRGB(name string) bool {
	for _, prefix := range []string{"rgb", "bgr", "argb", "abgr", "gbr", "0rgb", "0bgr", "x2rgb", "x2bgr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// lumaTarget returns the gray format that keeps depth.
func lumaTarget(depth int) string {
	switch depth {
	case 10:
		return "gray10le"
	case 12:
		return "gray12le"
	case 16:
		return "gray16le"
	default:
		return "gray"
	}
}
