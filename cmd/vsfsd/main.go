// Command vsfsd is the server side of the network file server: it mounts
// an image and answers lookup/creat/write/read/unlink requests over UDP,
// the equivalent of the original engine's server.c.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/double-fault/vsfs"
	"github.com/double-fault/vsfs/transport"
)

var (
	cfgFile  string
	port     int
	image    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "vsfsd",
	Short: "serve a vsfs image over UDP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("vsfsd: bad log level: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	imagePath := viper.GetString("image")
	if imagePath == "" {
		return fmt.Errorf("vsfsd: --image is required")
	}

	fsys, err := vsfs.Mount(imagePath)
	if err != nil {
		return fmt.Errorf("vsfsd: mount %s: %w", imagePath, err)
	}
	defer fsys.Unmount()

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	srv, err := transport.Listen(addr, fsys, log)
	if err != nil {
		return fmt.Errorf("vsfsd: listen: %w", err)
	}
	defer srv.Close()

	log.WithFields(logrus.Fields{"addr": srv.Addr().String(), "image": imagePath}).Info("vsfsd: serving")
	return srv.Serve()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		_ = viper.ReadInConfig()
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to a config file (yaml/json/toml)")
	rootCmd.Flags().IntVar(&port, "port", 6969, "UDP port to listen on")
	rootCmd.Flags().StringVar(&image, "image", "", "path to an existing vsfs image")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("image", rootCmd.Flags().Lookup("image"))
	_ = viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
