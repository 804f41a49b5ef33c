package vsfs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBitmapRoundTrip checks get/set/reset against a reference boolean
// array over a pseudo-random sequence of operations (spec §8 property 1).
func TestBitmapRoundTrip(t *testing.T) {
	const n = 500
	b := make(bitmap, bitmapWords(n))
	ref := make([]bool, n)

	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 5000; iter++ {
		i := rng.Intn(n)
		switch rng.Intn(3) {
		case 0:
			b.set(i)
			ref[i] = true
		case 1:
			b.reset(i)
			ref[i] = false
		default:
			require.Equal(t, ref[i], b.get(i), "index %d at iteration %d", i, iter)
		}
	}

	for i := 0; i < n; i++ {
		require.Equal(t, ref[i], b.get(i), "final state index %d", i)
	}
}

func TestBitmapFirstZero(t *testing.T) {
	b := make(bitmap, bitmapWords(64))
	require.Equal(t, 0, b.firstZero(64))

	for i := 0; i < 64; i++ {
		b.set(i)
	}
	require.Equal(t, -1, b.firstZero(64))

	b.reset(40)
	require.Equal(t, 40, b.firstZero(64))
}

// TestBitmapMSBOrdering pins down the exact bit layout spec §6 specifies:
// bit i lives in word i/32 under mask 1<<(31-(i mod 32)), not a raw
// unmodded shift (the original engine's latent bug for i >= 32).
func TestBitmapMSBOrdering(t *testing.T) {
	b := make(bitmap, 2)
	b.set(0)
	require.Equal(t, uint32(1<<31), b[0])

	b = make(bitmap, 2)
	b.set(31)
	require.Equal(t, uint32(1), b[0])

	b = make(bitmap, 2)
	b.set(32)
	require.Equal(t, uint32(1<<31), b[1])
	require.Equal(t, uint32(0), b[0])
}
