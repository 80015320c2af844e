package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	"github.com/yanqian/fitbit-export/internal/infra/config"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryArchive struct {
	objects map[string][]byte
	err     error
}

func (m *memoryArchive) Put(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func fullBundle() fitness.Bundle {
	b := fitness.Bundle{}
	for _, s := range fitness.Sections {
		b[s] = json.RawMessage(`{"section":"` + string(s) + `"}`)
	}
	return b
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	archive := &memoryArchive{}
	store := NewStore(dir, archive, newTestLogger())

	path, err := store.Save(context.Background(), "2024-01-02", fullBundle())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "data_2024-01-02.pickle"), path)

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, len(fitness.Sections))
	require.Empty(t, got.Missing())
	require.JSONEq(t, `{"section":"hr"}`, string(got[fitness.SectionHR]))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	mirrored, err := decompress(archive.objects["data_2024-01-02.pickle.zst"])
	require.NoError(t, err)
	require.Equal(t, onDisk, mirrored)
}

func TestSavePicklesDict(t *testing.T) {
	store := NewStore(t.TempDir(), nil, newTestLogger())
	path, err := store.Save(context.Background(), "2024-01-02", fullBundle())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// PROTO opcode followed by the protocol number, STOP at the end.
	require.Equal(t, []byte{0x80, pickleProtocol}, data[:2])
	require.Equal(t, byte('.'), data[len(data)-1])
}

func TestLoadKeepsNestedValues(t *testing.T) {
	bundle := fullBundle()
	bundle[fitness.SectionWeight] = json.RawMessage(`{"weight":[{"bmi":22.5,"date":"2024-01-02","logId":17,"weight":151,"fat":null}]}`)
	store := NewStore(t.TempDir(), nil, newTestLogger())

	path, err := store.Save(context.Background(), "2024-01-02", bundle)
	require.NoError(t, err)
	got, err := Load(path)
	require.NoError(t, err)
	require.JSONEq(t, string(bundle[fitness.SectionWeight]), string(got[fitness.SectionWeight]))
}

func TestSaveIgnoresArchiveFailure(t *testing.T) {
	store := NewStore(t.TempDir(), &memoryArchive{err: errors.New("bucket unreachable")}, newTestLogger())
	_, err := store.Save(context.Background(), "2024-01-02", fullBundle())
	require.NoError(t, err)
}

func TestFileNameKeepsRawDate(t *testing.T) {
	require.Equal(t, "data_Jan 2 2024.pickle", FileName("Jan 2 2024"))
	require.Equal(t, "data_01-02-2024.pickle", FileName("01/02/2024"))
	require.Equal(t, "data_2024-01-02.pickle.zst", ArchiveKey("2024-01-02"))
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_x.pickle")
	require.NoError(t, os.WriteFile(path, []byte("not a pickle"), 0o644))
	_, err := Load(path)
	require.True(t, apperrors.IsCode(err, apperrors.CodeSnapshot))
}

func TestNewMinioArchiveDisabled(t *testing.T) {
	a, err := NewMinioArchive(config.ArchiveConfig{}, newTestLogger())
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "minio:9000", sanitizeEndpoint(" https://minio:9000/bucket "))
	require.Equal(t, "s3.local", sanitizeEndpoint("s3.local"))
}
