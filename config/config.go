package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Configuration keys, shared by the YAML file and the process environment.
const (
	KeySignalNumber     = "SIGNAL_NUMBER"
	KeySignalRecipients = "SIGNAL_RECIPIENTS"
	KeyDryRun           = "DRY_RUN"
	KeyRebootIfRequired = "REBOOT_IF_REQUIRED"
	KeyLogDir           = "LOG_DIR"
	KeySignalLinuxUser  = "SIGNAL_LINUXUSER"
	KeyDistUpgrade      = "DIST_UPGRADE"
)

var defaults = map[string]interface{}{
	KeySignalNumber:     "",
	KeySignalRecipients: "",
	KeyDryRun:           "false",
	KeyRebootIfRequired: "false",
	KeyLogDir:           "/var/log/sigpatch",
	KeySignalLinuxUser:  "",
	KeyDistUpgrade:      "false",
}

// SearchPaths is tried in order when no explicit config path is given;
// the first existing file wins. A missing file is not an error.
var SearchPaths = []string{
	"/etc/sigpatch/sigpatch.yml",
	"/etc/sigpatch.yml",
	"sigpatch.yml",
}

// Settings is the finalized run configuration. It is built once at process
// start from defaults, then the config file, then the environment, and is
// never mutated afterwards.
type Settings struct {
	SignalNumber     string
	Recipients       []string
	DryRun           bool
	RebootIfRequired bool
	LogDir           string
	SignalUser       string
	DistUpgrade      bool
}

// Load builds Settings from the three layers, later layers winning per key.
// If explicitPath is non-empty that file must exist and parse; otherwise the
// search path is consulted and silence is fine.
func Load(explicitPath string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	path := explicitPath
	if path == "" {
		path = firstExisting(SearchPaths)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	if err := k.Load(env.Provider("", ".", knownKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	return fromKoanf(k), nil
}

// knownKey admits only the documented keys from the environment; the env
// provider drops variables for which the callback returns an empty string.
func knownKey(key string) string {
	if _, ok := defaults[key]; ok {
		return key
	}
	return ""
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func fromKoanf(k *koanf.Koanf) *Settings {
	return &Settings{
		SignalNumber:     k.String(KeySignalNumber),
		Recipients:       SplitRecipients(k.String(KeySignalRecipients)),
		DryRun:           isTrue(k.String(KeyDryRun)),
		RebootIfRequired: isTrue(k.String(KeyRebootIfRequired)),
		LogDir:           k.String(KeyLogDir),
		SignalUser:       k.String(KeySignalLinuxUser),
		DistUpgrade:      isTrue(k.String(KeyDistUpgrade)),
	}
}

// isTrue is the only coercion applied to boolean keys: the literal "true"
// enables, anything else disables.
func isTrue(v string) bool {
	return v == "true"
}

// SplitRecipients splits the comma-separated recipient list, trimming
// whitespace and dropping empty entries.
func SplitRecipients(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
