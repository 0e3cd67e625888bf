package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "(devel)"
	vcsRevisionSettingKeyConstant  = "vcs.revision"
	vcsModifiedSettingKeyConstant  = "vcs.modified"
	vcsModifiedTrueValueConstant   = "true"
	revisionPrefixConstant         = "devel+"
	dirtySuffixConstant            = "-dirty"
	shortRevisionLengthConstant    = 12
)

// BuildVersion is set at link time with -ldflags "-X github.com/tyemirov/run/internal/version.BuildVersion=v1.0.0".
var BuildVersion string

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	linkedVersion     string
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	LinkedVersion     string
}

// NewDetector constructs a Detector, defaulting to the runtime build info and the linked version.
func NewDetector(dependencies Dependencies) *Detector {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	linkedVersion := strings.TrimSpace(dependencies.LinkedVersion)
	if len(linkedVersion) == 0 {
		linkedVersion = strings.TrimSpace(BuildVersion)
	}

	return &Detector{buildInfoProvider: provider, linkedVersion: linkedVersion}
}

// Detect resolves the application version using the supplied dependencies.
func Detect(dependencies Dependencies) string {
	return NewDetector(dependencies).Version()
}

// Version returns the linked version, the module version, or a development revision, in that order.
func (detector *Detector) Version() string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}
	if len(detector.linkedVersion) > 0 {
		return detector.linkedVersion
	}

	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return unknownVersionFallbackConstant
	}

	moduleVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(moduleVersion) > 0 && moduleVersion != buildInfoDevelVersionValue {
		return moduleVersion
	}

	if revisionVersion := versionFromRevision(buildInfo.Settings); len(revisionVersion) > 0 {
		return revisionVersion
	}

	return unknownVersionFallbackConstant
}

func versionFromRevision(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, setting := range settings {
		switch setting.Key {
		case vcsRevisionSettingKeyConstant:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedSettingKeyConstant:
			modified = setting.Value == vcsModifiedTrueValueConstant
		}
	}
	if len(revision) == 0 {
		return ""
	}
	if len(revision) > shortRevisionLengthConstant {
		revision = revision[:shortRevisionLengthConstant]
	}

	versionString := revisionPrefixConstant + revision
	if modified {
		versionString += dirtySuffixConstant
	}
	return versionString
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
