package ffms

import (
	"fmt"

	"github.com/five82/avdecode/internal/frame"
)

// pixFormat is a planar layout frames can be delivered in.
type pixFormat struct {
	chroma frame.ChromaSampling
	depth  int
}

// planarFormats are the libav pixel formats copied out without conversion.
var planarFormats = map[string]pixFormat{
	"yuv420p":     {frame.Cs420, 8},
	"yuvj420p":    {frame.Cs420, 8},
	"yuv422p":     {frame.Cs422, 8},
	"yuvj422p":    {frame.Cs422, 8},
	"yuv444p":     {frame.Cs444, 8},
	"yuvj444p":    {frame.Cs444, 8},
	"yuv420p10le": {frame.Cs420, 10},
	"yuv422p10le": {frame.Cs422, 10},
	"yuv444p10le": {frame.Cs444, 10},
	"yuv420p12le": {frame.Cs420, 12},
	"yuv422p12le": {frame.Cs422, 12},
	"yuv444p12le": {frame.Cs444, 12},
	"yuv420p16le": {frame.Cs420, 16},
	"yuv422p16le": {frame.Cs422, 16},
	"yuv444p16le": {frame.Cs444, 16},
	"gray":        {frame.Cs400, 8},
	"gray10le":    {frame.Cs400, 10},
	"gray12le":    {frame.Cs400, 12},
	"gray16le":    {frame.Cs400, 16},
}

// convertible maps decoder formats that need a conversion to their planar
// equivalent.
var convertible = map[string]string{
	"nv12":        "yuv420p",
	"nv21":        "yuv420p",
	"nv16":        "yuv422p",
	"nv24":        "yuv444p",
	"p010le":      "yuv420p10le",
	"p016le":      "yuv420p16le",
	"yuv420p10be": "yuv420p10le",
	"yuv422p10be": "yuv422p10le",
	"yuv444p10be": "yuv444p10le",
	"yuv420p12be": "yuv420p12le",
	"yuv422p12be": "yuv422p12le",
	"yuv444p12be": "yuv444p12le",
}

// knownFormats lists every format name the backend recognises.
func knownFormats() []string {
	names := make([]string, 0, len(planarFormats)+len(convertible))
	for name := range planarFormats {
		names = append(names, name)
	}
	for name := range convertible {
		names = append(names, name)
	}
	return names
}

// formatName returns the planar format for a sampling and depth.
func formatName(cs frame.ChromaSampling, depth int) (string, error) {
	base := ""
	switch cs {
	case frame.Cs420:
		base = "yuv420p"
	case frame.Cs422:
		base = "yuv422p"
	case frame.Cs444:
		base = "yuv444p"
	case frame.Cs400:
		base = "gray"
	default:
		return "", fmt.Errorf("unknown chroma sampling %d", cs)
	}
	name := base
	if depth != 8 {
		name = fmt.Sprintf("%s%dle", base, depth)
	}
	if _, ok := planarFormats[name]; !ok {
		return "", fmt.Errorf("no %s format at %d bits", cs, depth)
	}
	return name, nil
}
