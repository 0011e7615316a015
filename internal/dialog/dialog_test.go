package dialog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := &Confirmer{In: strings.NewReader(tt.input), Out: &out}
		got, err := c.Confirm("Delete all 4 files?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Delete all 4 files? [y/N]: ", out.String())
	}
}

func TestConfirmForceSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	c := &Confirmer{In: strings.NewReader(""), Out: &out, Force: true}
	require.NoError(t, c.Require("Reset knowledge base?"))
	assert.Empty(t, out.String())
}

func TestConfirmSequentialAnswers(t *testing.T) {
	c := &Confirmer{In: strings.NewReader("n\ny\n"), Out: &bytes.Buffer{}}
	assert.ErrorIs(t, c.Require("first?"), ErrCancelled)
	assert.NoError(t, c.Require("second?"))
}

type projectForm struct {
	ClientName string
	VisaType   string
}

func TestDraftCancelDiscards(t *testing.T) {
	var d Draft[projectForm]
	d.Begin(projectForm{ClientName: "Li Wei", VisaType: "EB-1A"})
	d.Edit(func(f *projectForm) { f.VisaType = "NIW" })

	assert.Equal(t, "NIW", d.Value().VisaType)
	assert.Equal(t, "EB-1A", d.Original().VisaType)

	d.Cancel()
	assert.False(t, d.Open())
	assert.Equal(t, projectForm{}, d.Value())

	d.Edit(func(f *projectForm) { f.ClientName = "ignored" })
	assert.Empty(t, d.Value().ClientName, "edits after close are ignored")
}

func TestDraftCommit(t *testing.T) {
	var d Draft[projectForm]
	d.Begin(projectForm{ClientName: "Li Wei"})
	d.Edit(func(f *projectForm) { f.VisaType = "O-1" })

	saveErr := errors.New("HTTP 422: visa type required")
	err := d.Commit(func(projectForm) error { return saveErr })
	require.ErrorIs(t, err, saveErr)
	assert.True(t, d.Open(), "failed save keeps the draft")
	assert.Equal(t, "O-1", d.Value().VisaType)

	var saved projectForm
	require.NoError(t, d.Commit(func(f projectForm) error { saved = f; return nil }))
	assert.Equal(t, "O-1", saved.VisaType)
	assert.False(t, d.Open())

	assert.Error(t, d.Commit(func(projectForm) error { return nil }))
}

func TestBannerAutoClears(t *testing.T) {
	b := &Banner{TTL: 20 * time.Millisecond}
	b.Show(errors.New("upload failed"))
	assert.Equal(t, "upload failed", b.Message())

	assert.Eventually(t, func() bool { return b.Message() == "" }, time.Second, 5*time.Millisecond)
}

func TestBannerResetOnNextAction(t *testing.T) {
	b := &Banner{TTL: time.Hour}
	b.Show(errors.New("first"))
	b.Reset()
	assert.Empty(t, b.Message())

	b.Show(nil)
	assert.Empty(t, b.Message())
}

func TestBannerNewerMessageSurvivesOldTimer(t *testing.T) {
	b := &Banner{TTL: 30 * time.Millisecond}
	b.Show(errors.New("old"))
	time.Sleep(20 * time.Millisecond)
	b.Show(errors.New("new"))
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, "new", b.Message())
}

func TestBannerDefaultTTL(t *testing.T) {
	b := &Banner{}
	b.Show(errors.New("x"))
	defer b.Reset()
	assert.Equal(t, "x", b.Message())
	assert.Equal(t, 5*time.Second, DefaultBannerTTL)
}
