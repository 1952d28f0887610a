package sl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		env       string
		wantJSON  bool
		wantDebug bool
	}{
		{env: EnvLocal, wantJSON: false, wantDebug: true},
		{env: EnvDev, wantJSON: true, wantDebug: true},
		{env: EnvProd, wantJSON: true, wantDebug: false},
		{env: "staging", wantJSON: true, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := Setup(tt.env, &buf)

			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))

			log.Info("hello", Err(errors.New("boom")))

			line := strings.TrimSpace(buf.String())
			if !tt.wantJSON {
				assert.Contains(t, line, `error=boom`)
				return
			}

			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			assert.Equal(t, "hello", rec["msg"])
			assert.Equal(t, "boom", rec["error"])
		})
	}
}
