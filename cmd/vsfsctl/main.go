// Command vsfsctl is the client harness: mfs.c's MFS_* calls and test.c's
// seed scenario, exposed as subcommands against a running vsfsd.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/double-fault/vsfs"
	"github.com/double-fault/vsfs/transport"
)

var (
	server  string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "vsfsctl",
	Short: "talk to a vsfsd server",
}

func dial() (*transport.Client, error) {
	c, err := transport.Dial(viper.GetString("server"))
	if err != nil {
		return nil, err
	}
	c.SetTimeout(viper.GetDuration("timeout"))
	return c, nil
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <pinum> <name>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pinum, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		ret, err := c.Lookup(int32(pinum), args[1])
		if err != nil {
			return err
		}
		fmt.Println(ret)
		return nil
	},
}

var creatCmd = &cobra.Command{
	Use:   "creat <pinum> <type:dir|file> <name>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pinum, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		var typ int32
		switch args[1] {
		case "dir":
			typ = int32(vsfs.TypeDirectory)
		case "file":
			typ = int32(vsfs.TypeRegular)
		default:
			return fmt.Errorf("type must be dir or file, got %q", args[1])
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		ret, err := c.Creat(int32(pinum), typ, args[2])
		if err != nil {
			return err
		}
		fmt.Println(ret)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <inum> <offset> <data>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		inum, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		offset, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		data := []byte(args[2])
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		ret, err := c.Write(int32(inum), data, int32(offset), int32(len(data)))
		if err != nil {
			return err
		}
		fmt.Println(ret)
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <inum> <offset> <nbytes>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		inum, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		offset, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		nbytes, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		buf := make([]byte, nbytes)
		ret, err := c.Read(int32(inum), buf, int32(offset), int32(nbytes))
		if err != nil {
			return err
		}
		if ret == 0 {
			os.Stdout.Write(buf)
			fmt.Println()
		}
		fmt.Fprintln(os.Stderr, "status:", ret)
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <pinum> <name>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pinum, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		ret, err := c.Unlink(int32(pinum), args[1])
		if err != nil {
			return err
		}
		fmt.Println(ret)
		return nil
	},
}

// seedCmd replays the mutating steps of the original engine's smoke test
// (dir/dir2/file, five 2000-byte writes, an overlapping overwrite, then the
// non-empty-directory unlink check) against a live server. It checks status
// codes only: it does not look the created names up or read data back.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "replay the reference end-to-end scenario; run on an empty image",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		return runSeed(c)
	},
}

func runSeed(c *transport.Client) error {
	check := func(label string, got, want int32) error {
		if got != want {
			return fmt.Errorf("%s: got %d, want %d", label, got, want)
		}
		fmt.Printf("%-28s ok (%d)\n", label, got)
		return nil
	}

	ret, err := c.Lookup(0, "..")
	if err != nil {
		return err
	}
	if err := check("lookup(0, \"..\")", ret, 0); err != nil {
		return err
	}

	ret, err = c.Creat(0, int32(vsfs.TypeDirectory), "dir")
	if err != nil {
		return err
	}
	if err := check("creat(0, dir, \"dir\")", ret, 0); err != nil {
		return err
	}

	ret, err = c.Creat(1, int32(vsfs.TypeDirectory), "dir2")
	if err != nil {
		return err
	}
	if err := check("creat(1, dir, \"dir2\")", ret, 0); err != nil {
		return err
	}

	ret, err = c.Creat(2, int32(vsfs.TypeRegular), "file")
	if err != nil {
		return err
	}
	if err := check("creat(2, file, \"file\")", ret, 0); err != nil {
		return err
	}

	str := randString(10000)
	for i := 0; i < 5; i++ {
		chunk := []byte(str[2000*i : 2000*i+2000])
		ret, err := c.Write(3, chunk, int32(2000*i), 2000)
		if err != nil {
			return err
		}
		if err := check(fmt.Sprintf("write(3, chunk %d)", i), ret, 0); err != nil {
			return err
		}
	}

	ret, err = c.Write(3, []byte(randString(3000)), 3000, 3000)
	if err != nil {
		return err
	}
	if err := check("write(3, overwrite 3000-6000)", ret, 0); err != nil {
		return err
	}

	ret, err = c.Unlink(1, "dir2")
	if err != nil {
		return err
	}
	if err := check("unlink(1, \"dir2\") [non-empty]", ret, -1); err != nil {
		return err
	}

	ret, err = c.Unlink(2, "file")
	if err != nil {
		return err
	}
	if err := check("unlink(2, \"file\")", ret, 0); err != nil {
		return err
	}

	ret, err = c.Unlink(1, "dir2")
	if err != nil {
		return err
	}
	return check("unlink(1, \"dir2\")", ret, 0)
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// debugCmd mounts an image directly, not through the server, prints the
// superblock, and logs the bitmaps and inode table via logrus. Mount takes
// an exclusive lock on the image, so this fails while vsfsd has the same
// image mounted.
var debugCmd = &cobra.Command{
	Use:   "debug <image-path>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := vsfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Unmount()

		fmt.Print(fsys.DebugString())
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		log := logrus.NewEntry(logger)
		fsys.LogBitmaps(log)
		fsys.LogInodes(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&server, "server", "localhost:6969", "vsfsd address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", transport.DefaultTimeout, "retransmit timeout")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.AddCommand(lookupCmd, creatCmd, writeCmd, readCmd, unlinkCmd, seedCmd, debugCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
