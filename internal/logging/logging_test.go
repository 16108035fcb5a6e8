// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode      string
		wantDebug bool
	}{
		{mode: "dev", wantDebug: true},
		{mode: "", wantDebug: true},
		{mode: "prod", wantDebug: false},
		{mode: "Production", wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			log, err := New(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, log.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}
