package version

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"strings"
	"text/template"

	"github.com/NilFoundation/receipts/nil/common/check"
)

// Set at link time with -ldflags "-X".
var (
	gitTag    string
	gitCommit string
)

const unknownVersion = "<unknown>"

var versionTmpl = template.Must(template.New("version").Parse(`{{ .Title }}
 Version:	{{ .Version }}
 Go:	{{ .GoVersion }}
 OS/Arch:	{{ .OS }}/{{ .Arch }}
 Git commit:	{{ .Commit }}`))

type Info struct {
	Title     string
	Version   string
	GoVersion string
	OS        string
	Arch      string
	Commit    string
}

func GetInfo(appTitle string) Info {
	ver := gitTag
	if ver == "" {
		ver = unknownVersion
	}
	// drop the "-N-gHASH" suffix of git describe
	ver, _, _ = strings.Cut(ver, "-")

	return Info{
		Title:     appTitle,
		Version:   ver,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Commit:    GetGitCommit(),
	}
}

// GetGitCommit falls back to the VCS information embedded by the go tool.
func GetGitCommit() string {
	if gitCommit != "" {
		return gitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return unknownVersion
}

func BuildVersionString(appTitle string) string {
	var buf bytes.Buffer
	check.PanicIfErr(versionTmpl.Execute(&buf, GetInfo(appTitle)))
	return buf.String()
}
