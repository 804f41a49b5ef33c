package transport_test

import (
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/double-fault/vsfs"
	"github.com/double-fault/vsfs/transport"
)

func newServer(t *testing.T) (*transport.Server, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "vsfs-*.img")
	require.NoError(t, err)

	_, err = vsfs.Format(f, vsfs.FormatOptions{NumInodes: 64, NumData: 256})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fsys, err := vsfs.Mount(f.Name())
	require.NoError(t, err)

	log := logrus.NewEntry(logrus.New())
	log.Logger.SetLevel(logrus.ErrorLevel)

	srv, err := transport.Listen("127.0.0.1:0", fsys, log)
	require.NoError(t, err)

	go srv.Serve()

	return srv, func() {
		srv.Close()
		fsys.Unmount()
	}
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// TestSeedScenario replays the exact end-to-end walkthrough from the
// engine's original smoke test over a real loopback UDP round trip.
func TestSeedScenario(t *testing.T) {
	srv, cleanup := newServer(t)
	defer cleanup()

	c, err := transport.Dial(srv.Addr().String())
	require.NoError(t, err)
	c.SetTimeout(2 * time.Second)
	defer c.Close()

	ret, err := c.Lookup(0, "..")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Lookup(0, ".")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Creat(0, int32(vsfs.TypeDirectory), "dir")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Creat(1, int32(vsfs.TypeDirectory), "dir2")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Creat(2, int32(vsfs.TypeRegular), "file")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Lookup(0, "dir")
	require.NoError(t, err)
	require.EqualValues(t, 1, ret)

	ret, err = c.Lookup(1, "dir2")
	require.NoError(t, err)
	require.EqualValues(t, 2, ret)

	ret, err = c.Lookup(2, "file")
	require.NoError(t, err)
	require.EqualValues(t, 3, ret)

	str := randString(10000)
	for i := 0; i < 5; i++ {
		chunk := []byte(str[2000*i : 2000*i+2000])
		ret, err := c.Write(3, chunk, int32(2000*i), 2000)
		require.NoError(t, err)
		require.EqualValues(t, 0, ret)
	}

	for i := 0; i <= 5; i++ {
		buf := make([]byte, 4000)
		ret, err := c.Read(3, buf, int32(1000*i), 4000)
		require.NoError(t, err)
		require.EqualValues(t, 0, ret)
		require.Equal(t, str[1000*i:1000*i+4000], string(buf))
	}

	str2 := randString(3000)
	str = str[:3000] + str2 + str[6000:]
	ret, err = c.Write(3, []byte(str2), 3000, 3000)
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	for i := 0; i <= 5; i++ {
		buf := make([]byte, 4000)
		ret, err := c.Read(3, buf, int32(1000*i), 4000)
		require.NoError(t, err)
		require.EqualValues(t, 0, ret)
		require.Equal(t, str[1000*i:1000*i+4000], string(buf))
	}

	ret, err = c.Unlink(1, "dir2")
	require.NoError(t, err)
	require.EqualValues(t, -1, ret)

	ret, err = c.Unlink(2, "file")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Lookup(2, "file")
	require.NoError(t, err)
	require.EqualValues(t, -1, ret)

	ret, err = c.Unlink(1, "dir2")
	require.NoError(t, err)
	require.EqualValues(t, 0, ret)

	ret, err = c.Lookup(1, "dir2")
	require.NoError(t, err)
	require.EqualValues(t, -1, ret)
}
