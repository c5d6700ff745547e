// Package buildinfo exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/relog-go/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/relog-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Without ldflags, the commit and time fall back to the VCS stamp the Go
// toolchain embeds in module builds.
package buildinfo
