// Package ffprobe extracts stream information and packet tables using ffprobe.
package ffprobe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/avdecode/internal/proc"
)

// MediaInfo contains container and stream information.
type MediaInfo struct {
	FormatName string
	Duration   float64
	Streams    []Stream
}

// Stream contains the properties of one stream.
type Stream struct {
	Index            int
	CodecType        string
	CodecName        string
	PixFmt           string
	Width            int
	Height           int
	RFrameRate       string
	AvgFrameRate     string
	NbFrames         int
	FieldOrder       string
	BitsPerRawSample int
	// Rotation is the display rotation in degrees, normalized to 0, 90, 180 or 270.
	Rotation    int
	AttachedPic bool
}

// StreamDisposition contains stream disposition flags.
type StreamDisposition struct {
	Default     int `json:"default"`
	AttachedPic int `json:"attached_pic"`
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	Index            int               `json:"index"`
	CodecType        string            `json:"codec_type"`
	CodecName        string            `json:"codec_name"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	NbFrames         string            `json:"nb_frames"`
	PixFmt           string            `json:"pix_fmt"`
	FieldOrder       string            `json:"field_order"`
	RFrameRate       string            `json:"r_frame_rate"`
	AvgFrameRate     string            `json:"avg_frame_rate"`
	BitsPerRawSample string            `json:"bits_per_raw_sample"`
	Disposition      StreamDisposition `json:"disposition"`
	Tags             map[string]string `json:"tags"`
	SideDataList     []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Probe runs ffprobe on inputPath.
func Probe(ffprobePath, inputPath string) (*MediaInfo, error) {
	output, err := proc.Output(ffprobePath, []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	probe, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}
	return probe.mediaInfo(), nil
}

func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (o *ffprobeOutput) mediaInfo() *MediaInfo {
	info := &MediaInfo{FormatName: o.Format.FormatName}
	if d, err := strconv.ParseFloat(o.Format.Duration, 64); err == nil {
		info.Duration = d
	}

	for _, s := range o.Streams {
		stream := Stream{
			Index:        s.Index,
			CodecType:    s.CodecType,
			CodecName:    s.CodecName,
			PixFmt:       s.PixFmt,
			Width:        s.Width,
			Height:       s.Height,
			RFrameRate:   s.RFrameRate,
			AvgFrameRate: s.AvgFrameRate,
			FieldOrder:   s.FieldOrder,
			Rotation:     s.rotation(),
			AttachedPic:  s.Disposition.AttachedPic != 0,
		}
		if n, err := strconv.Atoi(s.NbFrames); err == nil {
			stream.NbFrames = n
		}
		if bits, err := strconv.Atoi(s.BitsPerRawSample); err == nil {
			stream.BitsPerRawSample = bits
		}
		info.Streams = append(info.Streams, stream)
	}
	return info
}

// rotation prefers the display matrix side data over the legacy rotate tag.
func (s *ffprobeStream) rotation() int {
	deg := 0
	found := false
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" {
			deg = int(sd.Rotation)
			found = true
			break
		}
	}
	if !found {
		if v, err := strconv.Atoi(s.Tags["rotate"]); err == nil {
			deg = v
		}
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// VideoStream returns the first video stream that is not cover art.
func (m *MediaInfo) VideoStream() (*Stream, bool) {
	for i := range m.Streams {
		s := &m.Streams[i]
		if s.CodecType == "video" && !s.AttachedPic {
			return s, true
		}
	}
	return nil, false
}

// PacketFlags returns one entry per packet of stream, true for keyframes, in
// decode order.
func PacketFlags(ffprobePath, inputPath string, stream int) ([]bool, error) {
	output, err := proc.Output(ffprobePath, []string{
		"-v", "quiet",
		"-select_streams", strconv.Itoa(stream),
		"-show_entries", "packet=flags",
		"-of", "csv=p=0",
		inputPath,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("ffprobe packet scan failed: %w", err)
	}
	return parsePacketFlags(output), nil
}

func parsePacketFlags(data []byte) []bool {
	var flags []bool
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		flags = append(flags, strings.HasPrefix(line, "K"))
	}
	return flags
}

// CountFrames counts the packets of stream by reading the whole file.
func CountFrames(ffprobePath, inputPath string, stream int) (int, error) {
	output, err := proc.Output(ffprobePath, []string{
		"-v", "quiet",
		"-select_streams", strconv.Itoa(stream),
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		inputPath,
	}, "")
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame count failed: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(output)), ",")))
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe frame count %q", strings.TrimSpace(string(output)))
	}
	return n, nil
}
