package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# OpenBBS Configuration File
#
# Every key can be overridden with an environment variable:
#   OPENBBS_<SECTION>_<KEY>, e.g. OPENBBS_SERVER_PORT=2323
#
# Lists accept comma separated strings in the environment. Boards are
# written as "Name:Description", e.g.
#   OPENBBS_BBS_BOARDS="Random:Posts without a home.,Technology:Install Gentoo."
#
# The bbs section is reloaded while the server runs.

`

// InitConfig writes a default configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	body, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(body)

	return writeConfigFile(path, buf.Bytes())
}
