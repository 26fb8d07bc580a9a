package cas

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/marmos91/dittosync/pkg/listfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport(t *testing.T) {
	ctx := context.Background()
	archive := openTestArchive(t)

	list := strings.Join([]string{
		"c1,docs/a.txt,NFS,1,1,-rw-r--r--",
		"c2,docs,NFS,1,1,drwxr-xr-x",
		"c3,docs/link,NFS,1,1,lrwxrwxrwx,,,,a.txt",
		"c4,plain.txt",
	}, "\n")

	files := map[string]string{"docs/a.txt": "alpha", "plain.txt": "plain"}
	var read []string
	payload := func(path string) ([]byte, error) {
		read = append(read, path)
		data, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(data), nil
	}

	stats, err := archive.Import(ctx, listfile.NewReader(strings.NewReader(list)), payload)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Clips: 4, Directories: 1, Links: 1}, stats)
	assert.Equal(t, []string{"docs/a.txt", "plain.txt"}, read)

	directive, err := archive.Directive(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1,docs/a.txt,NFS,1,1,-rw-r--r--", directive.ListFileRow)
	assert.Equal(t, uint64(5), directive.Size)

	directive, err = archive.Directive(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, directive.Directory)

	summaries, err := archive.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 4)
}

func TestImport_MissingPayload(t *testing.T) {
	archive := openTestArchive(t)

	payload := func(string) ([]byte, error) { return nil, os.ErrNotExist }
	_, err := archive.Import(context.Background(), listfile.NewReader(strings.NewReader("c1,a.txt")), payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestImport_RowWithoutPath(t *testing.T) {
	archive := openTestArchive(t)

	payload := func(string) ([]byte, error) { return nil, nil }
	_, err := archive.Import(context.Background(), listfile.NewReader(strings.NewReader("c1")), payload)
	require.Error(t, err)
}
