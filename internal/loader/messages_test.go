package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medwarehouse/pkg/logging"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scrapeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "channel_a/2026-01-15.json", `[
		{"message_id": 101, "channel_name": "medclinic", "channel_title": "Medical Clinic",
		 "message_date": "2026-01-15T10:00:00Z", "message_text": "Hello World", "forwards": 5},
		{"message_id": 102, "channel_name": "medclinic",
		 "message_date": "2026-01-15T11:00:00Z", "message_text": "Second", "views": 40, "has_media": true},
		{"channel_name": "medclinic", "message_text": "no identifier"}
	]`)
	writeFile(t, dir, "channel_a/2026-01-15_manifest.json", `{"files": 1}`)
	writeFile(t, dir, "channel_b/single.json",
		`{"message_id": 201, "channel_name": "tikvahpharma", "message_date": "2026-01-16T08:00:00Z", "message_text": "Stock update"}`)
	writeFile(t, dir, "channel_b/notes.txt", "not json")
	return dir
}

func TestMessagesLoaderLoadDir(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`ON CONFLICT \(message_id, channel_username\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	loader := NewMessagesLoader(db, logging.NewTestLogger(), nil)
	result, err := loader.LoadDir(context.Background(), scrapeDir(t))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files, "manifest and non-json files must be skipped")
	assert.Equal(t, 4, result.Records)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, int64(2), result.Inserted)
	assert.Equal(t, int64(1), result.Conflicted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessagesLoaderEmptyDir(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	loader := NewMessagesLoader(db, logging.NewTestLogger(), nil)
	result, err := loader.LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, result.Files)
	assert.Zero(t, result.Records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessagesLoaderInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO raw.telegram_messages").
		WillReturnError(errors.New("connection reset"))

	loader := NewMessagesLoader(db, logging.NewTestLogger(), nil)
	_, err = loader.LoadDir(context.Background(), scrapeDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert message batch")
}

func TestReadMessageFile(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "array.json", `[{"message_id": 1, "channel_name": "a"}, {"message_id": 2, "channel_name": "a"}]`)
	records, err := readMessageFile(filepath.Join(dir, "array.json"))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	writeFile(t, dir, "object.json", `{"message_id": 3, "channel_name": "b"}`)
	records, err = readMessageFile(filepath.Join(dir, "object.json"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].MessageID)
	assert.Equal(t, int64(3), *records[0].MessageID)

	writeFile(t, dir, "empty.json", "  \n")
	records, err = readMessageFile(filepath.Join(dir, "empty.json"))
	require.NoError(t, err)
	assert.Empty(t, records)

	writeFile(t, dir, "broken.json", `{"message_id": `)
	_, err = readMessageFile(filepath.Join(dir, "broken.json"))
	require.Error(t, err)
}
