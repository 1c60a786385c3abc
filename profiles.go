package cookiestate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Profile is a named deployment configuration: which cookie names to read
// and where the local state store lives.
type Profile struct {
	Name      string
	Names     CookieNames
	StorePath string
}

// LoadProfiles reads deployment profiles from an INI file. Each section is
// a profile; recognized keys are apiKeysCookie, providerSettingsCookie,
// storePath, and isRelative (when "1", storePath is resolved against the
// INI file's directory). Missing cookie names fall back to
// DefaultCookieNames.
func LoadProfiles(path string) (map[string]Profile, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cookiestate: load profiles: %w", err)
	}

	root := filepath.Dir(path)
	out := make(map[string]Profile)
	for _, secName := range cfg.SectionStrings() {
		if secName == ini.DefaultSection {
			continue
		}
		sec := cfg.Section(secName)

		p := Profile{
			Name: secName,
			Names: CookieNames{
				APIKeys:          strings.TrimSpace(sec.Key("apiKeysCookie").String()),
				ProviderSettings: strings.TrimSpace(sec.Key("providerSettingsCookie").String()),
			}.withDefaults(),
		}

		storePath := filepath.FromSlash(strings.TrimSpace(sec.Key("storePath").String()))
		if storePath != "" && sec.Key("isRelative").String() == "1" {
			storePath = filepath.Join(root, storePath)
		}
		p.StorePath = storePath

		out[secName] = p
	}
	return out, nil
}
