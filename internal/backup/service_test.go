package backup

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	data []byte
	err  error
}

func (f *fakeArchiver) Backup(context.Context) ([]byte, error) {
	return f.data, f.err
}

type fakeSink struct {
	objects map[string][]byte
	err     error
}

func newFakeSink() *fakeSink {
	return &fakeSink{objects: make(map[string][]byte)}
}

func (f *fakeSink) Upload(_ context.Context, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.objects[name] = data
	return name, nil
}

func (f *fakeSink) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return data, nil
}

func TestRunShipsArchive(t *testing.T) {
	sink := newFakeSink()
	svc := NewService(&fakeArchiver{data: []byte(`{"projects":[]}`)}, sink)

	key, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, key, "projects-")
	assert.Contains(t, key, ".json")

	stored, err := sink.Download(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"projects":[]}`), stored)
}

func TestRunArchiverFailure(t *testing.T) {
	sink := newFakeSink()
	svc := NewService(&fakeArchiver{err: fmt.Errorf("disk gone")}, sink)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Empty(t, sink.objects, "nothing uploaded when the archive fails")
}

func TestRunSinkFailure(t *testing.T) {
	sink := newFakeSink()
	sink.err = fmt.Errorf("access denied")
	svc := NewService(&fakeArchiver{data: []byte("{}")}, sink)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
