// Package testing holds a contract test suite shared by every content store
// implementation.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittosync/pkg/content"
)

// StoreTestSuite tests the WritableContentStore contract, not implementation
// details, so the same tests run against memory, filesystem and S3 stores.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &contenttesting.StoreTestSuite{
//	        NewStore: func() content.WritableContentStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test.
	NewStore func() content.WritableContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("ReadOperations", suite.RunReadTests)
	t.Run("WriteOperations", suite.RunWriteTests)
}

// RunReadTests executes the read-side tests.
func (suite *StoreTestSuite) RunReadTests(t *testing.T) {
	t.Run("ReadContent_NotFound", suite.testReadNotFound)
	t.Run("GetContentSize_NotFound", suite.testSizeNotFound)
	t.Run("ContentExists_Missing", suite.testExistsMissing)
	t.Run("ReadContent_CancelledContext", suite.testReadCancelled)
}

// RunWriteTests executes the write-side tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteContent_Basic", suite.testWriteBasic)
	t.Run("WriteContent_Overwrite", suite.testWriteOverwrite)
	t.Run("WriteContent_Empty", suite.testWriteEmpty)
	t.Run("WriteContent_PathLikeID", suite.testWritePathLikeID)
	t.Run("WriteContent_InvalidID", suite.testWriteInvalidID)
	t.Run("WriteContent_CallerBufferIsCopied", suite.testWriteCopiesBuffer)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

func (suite *StoreTestSuite) testReadNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.ReadContent(testContext(), generateTestID("missing"))
	AssertErrorIs(t, content.ErrContentNotFound, err)
}

func (suite *StoreTestSuite) testSizeNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.GetContentSize(testContext(), generateTestID("missing"))
	AssertErrorIs(t, content.ErrContentNotFound, err)
}

func (suite *StoreTestSuite) testExistsMissing(t *testing.T) {
	store := suite.NewStore()

	assertContentExists(t, store, generateTestID("missing"), false)
}

func (suite *StoreTestSuite) testReadCancelled(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("cancelled")
	mustWriteContent(t, store, id, []byte("data"))

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := store.ReadContent(ctx, id)
	AssertErrorIs(t, context.Canceled, err)
}

func (suite *StoreTestSuite) testWriteBasic(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-basic")
	data := []byte("Hello, World!")

	mustWriteContent(t, store, id, data)

	assertContentExists(t, store, id, true)
	assertContentEquals(t, store, id, data)
	assertContentSize(t, store, id, uint64(len(data)))
}

func (suite *StoreTestSuite) testWriteOverwrite(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-overwrite")

	mustWriteContent(t, store, id, []byte("Old data that is longer"))
	mustWriteContent(t, store, id, []byte("New data"))

	assertContentEquals(t, store, id, []byte("New data"))
	assertContentSize(t, store, id, 8)
}

func (suite *StoreTestSuite) testWriteEmpty(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-empty")

	mustWriteContent(t, store, id, []byte{})

	assertContentExists(t, store, id, true)
	assertContentSize(t, store, id, 0)
	assertContentEquals(t, store, id, []byte{})
}

func (suite *StoreTestSuite) testWritePathLikeID(t *testing.T) {
	store := suite.NewStore()
	id := content.ContentID("dir/sub dir/file,with \"odd\" name.txt")

	mustWriteContent(t, store, id, []byte("nested"))

	assertContentEquals(t, store, id, []byte("nested"))
}

func (suite *StoreTestSuite) testWriteInvalidID(t *testing.T) {
	store := suite.NewStore()

	err := store.WriteContent(testContext(), "", []byte("data"))
	AssertErrorIs(t, content.ErrInvalidContentID, err)
}

func (suite *StoreTestSuite) testWriteCopiesBuffer(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-copy")
	data := []byte("original")

	mustWriteContent(t, store, id, data)
	copy(data, "mutated!")

	assertContentEquals(t, store, id, []byte("original"))
}

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete")

	mustWriteContent(t, store, id, []byte("data"))
	mustDelete(t, store, id)

	assertContentExists(t, store, id, false)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete-twice")

	mustDelete(t, store, id)
	mustDelete(t, store, id)
}
