package childproc

import (
	"os"
	"strings"
	"sync/atomic"
)

// ProfileEnvVar names the environment variable the default runtime profile is read from.
const ProfileEnvVar = "APP_ENV"

// Profile selects how much detail diagnostics may include.
type Profile int

const (
	// ProfileDevelopment includes captured process output in error reports.
	ProfileDevelopment Profile = iota
	// ProfileProduction omits captured output, which may be sensitive.
	ProfileProduction
)

func (p Profile) String() string {
	if p == ProfileProduction {
		return "production"
	}

	return "development"
}

// ParseProfile maps "production" (any case) to ProfileProduction and everything else to
// ProfileDevelopment.
func ParseProfile(s string) Profile {
	if strings.EqualFold(strings.TrimSpace(s), "production") {
		return ProfileProduction
	}

	return ProfileDevelopment
}

// profile holds the profile plus one; zero means "not yet resolved".
var profile atomic.Int32

// CurrentProfile returns the runtime profile. Unless set with SetProfile it is derived
// from ProfileEnvVar on first use.
func CurrentProfile() Profile {
	if v := profile.Load(); v != 0 {
		return Profile(v - 1)
	}

	p := ParseProfile(os.Getenv(ProfileEnvVar))
	profile.CompareAndSwap(0, int32(p)+1)

	return Profile(profile.Load() - 1)
}

// SetProfile overrides the runtime profile. It is safe for concurrent use.
func SetProfile(p Profile) {
	profile.Store(int32(p) + 1)
}

// ResetProfile discards any override; the next CurrentProfile call re-reads ProfileEnvVar.
func ResetProfile() {
	profile.Store(0)
}
