package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const buildImage = "gophertribe/gobuild:1.25-bookworm"

type target struct {
	os   string
	arch string
}

// boards lists the single board computers the gobot adapter is used on.
var boards = map[string]target{
	"nanopi-neo": {os: "linux", arch: "arm"},
	"nanopi-r2":  {os: "linux", arch: "arm64"},
}

func BuildCmd() *cobra.Command {
	var (
		version string
		board   string
		noCache bool
		inside  bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the dht20 cli into dist/",
		Long: `Build the dht20 cli. Native builds run go build directly. Board builds
need cgo for the hid package so they run inside a cross-compiling container.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := target{os: runtime.GOOS, arch: runtime.GOARCH}
			if board != "" {
				var ok bool
				t, ok = boards[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
			}
			out := fmt.Sprintf("dist/dht20-%s-%s", t.os, t.arch)
			native := t.os == runtime.GOOS && t.arch == runtime.GOARCH
			if native || inside {
				slog.Info("building", "output", out, "os", t.os, "arch", t.arch, "version", version)
				return build.GoBuild(out, "./cmd/dht20", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          t.arch,
					OS:            t.os,
				})
			}
			slog.Info("building in container", "image", buildImage, "board", board)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch),
				[]string{"build", "--version", version, "--board", board, "--inside"},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   buildImage,
				})
		},
	}
	cmd.Flags().StringVar(&version, "version", "latest", "version injected into the binary")
	cmd.Flags().StringVar(&board, "board", "", "target board: nanopi-neo or nanopi-r2")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the docker build cache")
	cmd.Flags().BoolVar(&inside, "inside", false, "already running in the build container")
	_ = cmd.Flags().MarkHidden("inside")
	return cmd
}
