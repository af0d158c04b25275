package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhs-agent/internal/models"
)

func testEntry(title string) models.PublishLogEntry {
	return models.PublishLogEntry{
		PublishedAt:   time.Now(),
		Title:         title,
		ContentLength: 120,
		ImageCount:    2,
		Topics:        []string{"话题"},
		Result:        models.PublishResult{Success: true, Message: "ok"},
	}
}

func TestPublishLogAppendAndCount(t *testing.T) {
	log, err := NewPublishLog(t.TempDir())
	require.NoError(t, err)

	count, err := log.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, log.Append(testEntry("第一篇")))
	require.NoError(t, log.Append(testEntry("第二篇")))

	count, err = log.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPublishLogCountIsRecomputed(t *testing.T) {
	dir := t.TempDir()
	log, err := NewPublishLog(dir)
	require.NoError(t, err)

	require.NoError(t, log.Append(testEntry("一")))
	count, err := log.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second writer (or a previous run) appended behind our back; the
	// count must reflect the file, not a cached value.
	other, err := NewPublishLog(dir)
	require.NoError(t, err)
	require.NoError(t, other.Append(testEntry("二")))

	count, err = log.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPublishedTitlesSpansAllDays(t *testing.T) {
	dir := t.TempDir()
	log, err := NewPublishLog(dir)
	require.NoError(t, err)

	// Yesterday's log counts toward dedup even though today's count is zero.
	log.now = func() time.Time { return time.Now().AddDate(0, 0, -1) }
	require.NoError(t, log.Append(testEntry("昨天的笔记")))

	log.now = time.Now
	require.NoError(t, log.Append(testEntry("今天的笔记")))

	titles, err := log.PublishedTitles()
	require.NoError(t, err)
	assert.True(t, titles["昨天的笔记"])
	assert.True(t, titles["今天的笔记"])

	count, err := log.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPublishedTitlesSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	log, err := NewPublishLog(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "published", "2025-01-01.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n{\"title\":\"好的\"}\n"), 0644))

	titles, err := log.PublishedTitles()
	require.NoError(t, err)
	assert.True(t, titles["好的"])
	assert.Len(t, titles, 1)
}
