package testing

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/marmos91/dittosync/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idCounter atomic.Uint64

// generateTestID returns an ID unique within the test binary.
func generateTestID(prefix string) content.ContentID {
	return content.ContentID(fmt.Sprintf("test-%s-%d", prefix, idCounter.Add(1)))
}

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// mustWriteContent writes content and fails the test if it errors.
func mustWriteContent(t *testing.T, store content.WritableContentStore, id content.ContentID, data []byte) {
	t.Helper()
	err := store.WriteContent(testContext(), id, data)
	require.NoError(t, err, "WriteContent should succeed")
}

// mustReadContent reads content and fails the test if it errors.
func mustReadContent(t *testing.T, store content.ContentStore, id content.ContentID) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err, "ReadContent should succeed")
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "Reading content should succeed")
	return data
}

// mustDelete deletes content and fails the test if it errors.
func mustDelete(t *testing.T, store content.WritableContentStore, id content.ContentID) {
	t.Helper()
	err := store.Delete(testContext(), id)
	require.NoError(t, err, "Delete should succeed")
}

// assertContentExists checks if content exists.
func assertContentExists(t *testing.T, store content.ContentStore, id content.ContentID, expected bool) {
	t.Helper()
	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err, "ContentExists should not error")
	assert.Equal(t, expected, exists, "Content existence mismatch")
}

// assertContentEquals checks if content matches expected data.
func assertContentEquals(t *testing.T, store content.ContentStore, id content.ContentID, expected []byte) {
	t.Helper()
	assert.Equal(t, string(expected), string(mustReadContent(t, store, id)), "Content mismatch")
}

// assertContentSize checks if content size matches expected.
func assertContentSize(t *testing.T, store content.ContentStore, id content.ContentID, expected uint64) {
	t.Helper()
	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err, "GetContentSize should succeed")
	assert.Equal(t, expected, size, "Content size mismatch")
}
