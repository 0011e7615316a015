package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportBuild(t *testing.T) {
	viewerErr := errors.New("log viewer error: open tty")
	jobErr := errors.New("llm timeout")

	tests := []struct {
		name        string
		finished    bool
		err         error
		wantErr     error
		wantPrinted bool
	}{
		{"viewer failed", false, viewerErr, viewerErr, false},
		{"closed early", false, nil, nil, false},
		{"job failed", true, jobErr, jobErr, false},
		{"job succeeded", true, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printed := false
			err := reportBuild(tt.finished, tt.err, func() { printed = true })

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantPrinted, printed)
		})
	}
}
