package vapoursynth

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/avdecode/internal/frame"
)

// variableValue is what vspipe prints for a clip property that changes per frame.
const variableValue = "Variable"

// clipInfo is the output node as reported by vspipe --info.
type clipInfo struct {
	Width       string
	Height      string
	Frames      int
	FPS         string
	FormatName  string
	ColorFamily string
	SampleType  string
	Bits        int
	SubW        int
	SubH        int
}

// parseInfo reads the "Key: Value" lines written by vspipe --info.
func parseInfo(data []byte) (clipInfo, error) {
	var info clipInfo
	seen := map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		seen[key] = true

		var err error
		switch key {
		case "Width":
			info.Width = value
		case "Height":
			info.Height = value
		case "Frames":
			info.Frames, err = strconv.Atoi(value)
		case "FPS":
			// "24000/1001 (23.976 fps)"
			info.FPS, _, _ = strings.Cut(value, " ")
		case "Format Name":
			info.FormatName = value
		case "Color Family":
			info.ColorFamily = value
		case "Sample Type":
			info.SampleType = value
		case "Bits":
			info.Bits, err = strconv.Atoi(value)
		case "SubSampling W":
			info.SubW, err = strconv.Atoi(value)
		case "SubSampling H":
			info.SubH, err = strconv.Atoi(value)
		}
		if err != nil {
			return clipInfo{}, fmt.Errorf("malformed %s %q", key, value)
		}
	}
	for _, key := range []string{"Width", "Height", "Frames", "FPS", "Format Name"} {
		if !seen[key] {
			return clipInfo{}, fmt.Errorf("vspipe info is missing %s", key)
		}
	}
	return info, nil
}

// details converts the node description. Clips whose format, size or rate
// vary per frame cannot be described by a single VideoDetails.
func (c clipInfo) details() (frame.VideoDetails, error) {
	if c.Width == variableValue || c.Height == variableValue {
		return frame.VideoDetails{}, fmt.Errorf("clip has variable resolution")
	}
	if c.FPS == variableValue {
		return frame.VideoDetails{}, fmt.Errorf("clip has variable frame rate")
	}
	if c.FormatName == variableValue || c.ColorFamily == "" {
		return frame.VideoDetails{}, fmt.Errorf("clip has variable format")
	}
	if c.SampleType == "Float" {
		return frame.VideoDetails{}, fmt.Errorf("clip format %s uses float samples", c.FormatName)
	}

	width, err := strconv.Atoi(c.Width)
	if err != nil {
		return frame.VideoDetails{}, fmt.Errorf("malformed width %q", c.Width)
	}
	height, err := strconv.Atoi(c.Height)
	if err != nil {
		return frame.VideoDetails{}, fmt.Errorf("malformed height %q", c.Height)
	}
	rate, err := frame.ParseRational(c.FPS)
	if err != nil {
		return frame.VideoDetails{}, err
	}

	var cs frame.ChromaSampling
	switch c.ColorFamily {
	case "Gray":
		cs = frame.Cs400
	case "YUV":
		switch {
		case c.SubW == 1 && c.SubH == 1:
			cs = frame.Cs420
		case c.SubW == 1 && c.SubH == 0:
			cs = frame.Cs422
		case c.SubW == 0 && c.SubH == 0:
			cs = frame.Cs444
		default:
			return frame.VideoDetails{}, fmt.Errorf("unsupported subsampling in %s", c.FormatName)
		}
	default:
		return frame.VideoDetails{}, fmt.Errorf("unsupported color family %s (%s), only YUV and Gray clips are supported", c.ColorFamily, c.FormatName)
	}

	d := frame.VideoDetails{
		Width:          width,
		Height:         height,
		BitDepth:       c.Bits,
		ChromaSampling: cs,
		FrameRate:      rate,
		TotalFrames:    c.Frames,
	}
	if err := d.Validate(); err != nil {
		return frame.VideoDetails{}, err
	}
	return d, nil
}
