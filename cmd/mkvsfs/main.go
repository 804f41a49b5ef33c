// Command mkvsfs builds a new, empty vsfs image: the disk-image builder
// spec.md deliberately keeps out of the core engine (§6, "Mount argument").
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"

	"github.com/double-fault/vsfs"
)

var (
	numInodes  int32
	numData    int32
	compressAs string
)

var rootCmd = &cobra.Command{
	Use:   "mkvsfs <output-path>",
	Short: "format a new vsfs image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func run(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mkvsfs: create %s: %w", path, err)
	}
	defer f.Close()

	sb, err := vsfs.Format(f, vsfs.FormatOptions{NumInodes: numInodes, NumData: numData})
	if err != nil {
		return fmt.Errorf("mkvsfs: format: %w", err)
	}
	fmt.Printf("formatted %s: %d inodes, %d data blocks\n", path, sb.NumInodes, sb.NumData)

	if compressAs == "" {
		return nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("mkvsfs: seek: %w", err)
	}
	return writeSnapshot(f, path, compressAs)
}

// writeSnapshot emits a compressed copy of the freshly built image
// alongside it, for distribution or debugging without shipping the raw
// (mostly-zero) image bytes.
func writeSnapshot(src io.Reader, path, format string) error {
	snapPath := path + "." + format
	out, err := os.Create(snapPath)
	if err != nil {
		return fmt.Errorf("mkvsfs: create snapshot %s: %w", snapPath, err)
	}
	defer out.Close()

	switch format {
	case "zst":
		w, err := zstd.NewWriter(out)
		if err != nil {
			return fmt.Errorf("mkvsfs: zstd writer: %w", err)
		}
		defer w.Close()
		_, err = io.Copy(w, src)
		return err
	case "xz":
		w, err := xz.NewWriter(out)
		if err != nil {
			return fmt.Errorf("mkvsfs: xz writer: %w", err)
		}
		defer w.Close()
		_, err = io.Copy(w, src)
		return err
	default:
		return fmt.Errorf("mkvsfs: unknown snapshot format %q (want zst or xz)", format)
	}
}

func init() {
	rootCmd.Flags().Int32Var(&numInodes, "inodes", 64, "number of inode slots")
	rootCmd.Flags().Int32Var(&numData, "data-blocks", 1024, "number of data blocks")
	rootCmd.Flags().StringVar(&compressAs, "snapshot", "", "also emit a compressed snapshot (zst or xz)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
