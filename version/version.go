package version

import "runtime/debug"

// Version can be set at build time:
// go build -ldflags "-X github.com/towel808/towel/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision of the build, suffixed with -dirty for
// modified trees, or empty when the binary carries no VCS information.
var Hash = revision()

// VersionOrHash is Version when it was set at build time, Hash otherwise.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

// Banner names a program together with its version, e.g. "towel-play 1.2.0".
func Banner(program string) string {
	if VersionOrHash == "" {
		return program + " (devel)"
	}
	return program + " " + VersionOrHash
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
