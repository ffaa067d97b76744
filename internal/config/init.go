package config

import (
	"fmt"
	"os"
)

// exampleConfig is the documented starting point written by Init. It keeps
// every section present but disabled so the defaults stay authoritative.
const exampleConfig = `# mdsite configuration. Every section is optional; built-in defaults apply
# when this file is absent.

site:
  # Text of the leading navbar link.
  home_label: Home
  # Directory copied verbatim into the output root. Defaults to an "asset"
  # directory next to the mdsite executable.
  # asset_dir: /srv/shared/asset
  # Extra top-level source directories excluded from conversion and indexing,
  # in addition to the built-in asset and _resources names.
  # reserved:
  #   - drafts

daemon:
  # Rebuilds wait for the source tree to go quiet before running.
  quiet_window: 2s
  # Upper bound on how long a steady stream of changes can defer a rebuild.
  max_delay: 30s
  # Periodic full rebuild independent of filesystem events. Empty disables
  # the schedule.
  # rebuild_interval: 30m

metrics:
  enabled: false
  listen: ":9090"

history:
  enabled: false
  path: mdsite-history.db

events:
  enabled: false
  # url: nats://127.0.0.1:4222
  subject: mdsite.builds

publish:
  enabled: false
  message: Update generated site
  author_name: mdsite
  author_email: mdsite@localhost
`

// Init writes an example configuration file to configPath. An existing file
// is only replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil { // #nosec G306 -- example config is not sensitive
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
