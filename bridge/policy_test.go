package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fermi-controls/extapi-acsys/errors"
)

func captureLogs() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestStreamEnded_Reasons(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name  string
		ctx   context.Context
		err   error
		want  streamEnd
		level string
		class string
	}{
		{"consumer gone", cancelled, nil, endCancelled, "DEBUG", ""},
		{"eof", context.Background(), io.EOF, endCompleted, "DEBUG", ""},
		{"interrupted", context.Background(),
			errors.WrapTransient(errors.ErrTransportInterrupted, "DPMClient", "Recv", "receive"),
			endInterrupted, "WARN", "transient"},
		{"undecodable reply", context.Background(),
			errors.WrapInvalid(errors.ErrParsingFailed, "Codec", "Unmarshal", "decode"),
			endInterrupted, "WARN", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogs()
			assert.Equal(t, tt.want, streamEnded(tt.ctx, logger, tt.err))

			rec := lastRecord(t, buf)
			assert.Equal(t, tt.level, rec["level"])
			if tt.class != "" {
				assert.Equal(t, tt.class, rec["class"])
			}
		})
	}
}

func TestConnectionFailed_LogsClass(t *testing.T) {
	logger, buf := captureLogs()
	connectionFailed(context.Background(), logger,
		errors.WrapFatal(errors.ErrMissingConfig, "DPMClient", "Open", "dial"))

	rec := lastRecord(t, buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "fatal", rec["class"])

	buf.Reset()
	connectionFailed(context.Background(), logger, context.Canceled)
	assert.Equal(t, "DEBUG", lastRecord(t, buf)["level"])
}
