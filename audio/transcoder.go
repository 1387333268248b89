package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
)

// Transcoder re-encodes arbitrary input audio into the fixed format the
// analysis provider expects: mp3, 192kbps, stereo, 44.1 kHz.
type Transcoder interface {
	Normalize(ctx context.Context, audio []byte) ([]byte, error)
}

// FFmpegTranscoder shells out to ffmpeg, piping audio through stdin/stdout so
// nothing touches disk. Deezer previews come back at an odd bitrate that the
// analysis API rejects; this fixes them.
type FFmpegTranscoder struct {
	bin string
	log *zap.SugaredLogger
}

func ProvideTranscoder(log *zap.SugaredLogger) Transcoder {
	return &FFmpegTranscoder{bin: "ffmpeg", log: log}
}

func (t *FFmpegTranscoder) Normalize(ctx context.Context, audio []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.bin,
		"-i", "pipe:0",
		"-f", "mp3",
		"-b:a", "192k",
		"-ac", "2",
		"-ar", "44100",
		"pipe:1",
	)

	var out, errBuf bytes.Buffer
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg failed: %w: %s", err, lastLine(errBuf.String()))
	}

	// Make sure the result actually decodes before uploading it.
	if _, err := mp3.NewDecoder(bytes.NewReader(out.Bytes())); err != nil {
		return nil, fmt.Errorf("audio: transcoded preview does not decode: %w", err)
	}

	return out.Bytes(), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
