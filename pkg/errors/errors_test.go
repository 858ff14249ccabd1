package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(KindStoreIoError, "vectorstore.Put", "failed to write slot", cause)

	assert.Equal(t, KindStoreIoError, KindOf(err))
	assert.True(t, IsKind(err, KindStoreIoError))
	assert.False(t, IsKind(err, KindNotFound))
	assert.ErrorIs(t, err, cause)
}

func TestKindOfPlainErrorIsUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(stderrors.New("boom")))
}

func TestIsMatchesByKindNotMessage(t *testing.T) {
	a := New(KindNotFound, "catalog.Get", "collection not found")
	b := New(KindNotFound, "collection.Get", "vector not found")

	assert.True(t, stderrors.Is(a, b))
	assert.True(t, stderrors.Is(a, ErrCollectionNotFound))
	assert.False(t, stderrors.Is(a, ErrCollectionExists))
}

func TestKindStringValues(t *testing.T) {
	cases := map[Kind]string{
		KindNotFound:              "not_found",
		KindAlreadyExists:         "already_exists",
		KindDimensionMismatch:     "dimension_mismatch",
		KindInvalidArgument:       "invalid_argument",
		KindCollectionUnavailable: "collection_unavailable",
		KindUnknown:               "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := Wrap(KindWalIoError, "wal.Append", "failed to append record", cause)
	assert.Contains(t, err.Error(), "wal.Append")
	assert.Contains(t, err.Error(), "permission denied")
}
