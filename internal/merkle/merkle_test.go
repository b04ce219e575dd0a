package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hexDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func pairHash(l, r string) string {
	lb, _ := hex.DecodeString(l)
	rb, _ := hex.DecodeString(r)
	return hexDigest(append(lb, rb...))
}

func TestEmptyRoot(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", EmptyRoot)
	assert.Equal(t, EmptyRoot, Root(nil))
	assert.Equal(t, EmptyRoot, Root([][]byte{}))
}

func TestSingleLeaf(t *testing.T) {
	leaf := []byte(`{"kind":"bank_extract"}`)
	assert.Equal(t, hexDigest(leaf), Root([][]byte{leaf}))
}

func TestTwoLeaves(t *testing.T) {
	a, b := []byte("a"), []byte("b")
	assert.Equal(t, pairHash(hexDigest(a), hexDigest(b)), Root([][]byte{a, b}))
}

func TestOddLeafDuplicated(t *testing.T) {
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	ab := pairHash(hexDigest(a), hexDigest(b))
	cc := pairHash(hexDigest(c), hexDigest(c))
	assert.Equal(t, pairHash(ab, cc), Root([][]byte{a, b, c}))
}

func TestFiveLeaves(t *testing.T) {
	leaves := [][]byte{[]byte("1"), []byte("2"), []byte("3"), []byte("4"), []byte("5")}
	h := make([]string, len(leaves))
	for i, l := range leaves {
		h[i] = hexDigest(l)
	}
	l1 := []string{pairHash(h[0], h[1]), pairHash(h[2], h[3]), pairHash(h[4], h[4])}
	l2 := []string{pairHash(l1[0], l1[1]), pairHash(l1[2], l1[2])}
	assert.Equal(t, pairHash(l2[0], l2[1]), Root(leaves))
}

func TestOrderSensitive(t *testing.T) {
	a, b := []byte("a"), []byte("b")
	assert.NotEqual(t, Root([][]byte{a, b}), Root([][]byte{b, a}))
	assert.Equal(t, Root([][]byte{a, b}), Root([][]byte{a, b}))
}

func TestRootDoesNotMutateInput(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	Root(leaves)
	assert.Len(t, leaves, 3)
	assert.Equal(t, []byte("c"), leaves[2])
}
