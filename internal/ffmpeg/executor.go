package ffmpeg

import (
	"errors"
	"fmt"
	"strings"

	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/y4m"
)

// startPipe runs ffmpeg with args and reads the stream header it writes.
func startPipe(ffmpegPath string, args []string) (*y4m.Pipe, error) {
	pipe, err := y4m.StartPipe(ffmpegPath, args, "")
	if err != nil {
		return nil, describeFailure(err)
	}
	return pipe, nil
}

// describeFailure turns well-known ffmpeg complaints into readable errors.
func describeFailure(err error) error {
	if err == nil {
		return nil
	}
	var cmdErr *averrors.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	switch {
	case strings.Contains(cmdErr.Stderr, "No streams found"):
		return fmt.Errorf("no streams found in input file: %w", err)
	case strings.Contains(cmdErr.Stderr, "Invalid data found when processing input"):
		return fmt.Errorf("input is not a decodable media file: %w", err)
	case strings.Contains(cmdErr.Stderr, "Decoder") && strings.Contains(cmdErr.Stderr, "not found"):
		return fmt.Errorf("ffmpeg has no decoder for this stream: %w", err)
	}
	return err
}
