package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDirectory struct {
	entries map[string]string
	err     error
}

func (f *fakeDirectory) PreferredStation(_ context.Context, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.entries[code], nil
}

func TestResolver(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{entries: map[string]string{
		"San Carlos": "KSQL",
		"Half Moon":  "haf",
	}}
	r := NewResolver(dir)
	ctx := context.Background()

	tests := []struct {
		name  string
		label string
		hint  string
		want  string
	}{
		{"hint wins when valid", "somewhere", "ksfo", "KSFO"},
		{"invalid hint falls through to label", "EGLL", "not-a-code", "EGLL"},
		{"label is already a code", "kpao", "", "KPAO"},
		{"bare 3-letter code gets K prefix", "sql", "", "KSQL"},
		{"directory lookup", "San Carlos", "", "KSQL"},
		{"directory 3-letter code normalized", "Half Moon", "", "KHAF"},
		{"unknown label", "Nowhereville", "", ""},
		{"empty input", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(ctx, tt.label, tt.hint))
		})
	}
}

func TestResolver_directoryErrorMeansUnresolved(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeDirectory{err: assert.AnError})
	assert.Equal(t, "", r.Resolve(context.Background(), "San Carlos", ""))
}

func TestResolver_withoutDirectory(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	assert.Equal(t, "EGLL", r.Resolve(context.Background(), "egll", ""))
	assert.Equal(t, "", r.Resolve(context.Background(), "San Carlos", ""))
}
