package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
)

// configFileName is looked up in the config directory when --config is unset.
const configFileName = "config.toml"

// fileConfig is the optional TOML configuration file:
//
//	[layout]
//	node_width = 180
//	level_gap = 120
//
//	[cache]
//	url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":9090"
type fileConfig struct {
	Layout conceptmap.Config `toml:"layout"`
	Cache  struct {
		URL string `toml:"url"`
	} `toml:"cache"`
	Server struct {
		Addr     string `toml:"addr"`
		MaxNodes int    `toml:"max_nodes"`
	} `toml:"server"`

	// defined records which layout keys the file sets.
	defined map[string]bool
}

// loadConfig reads the config file at path. An empty path means the default
// location, which may be absent; an explicit path must exist.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return &fileConfig{}, nil
		}
		path = filepath.Join(dir, configFileName)
	}

	var cfg fileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.defined = make(map[string]bool)
	for _, key := range []string{"node_width", "node_height", "level_gap", "node_gap"} {
		cfg.defined[key] = md.IsDefined("layout", key)
	}
	return &cfg, nil
}

// layoutFlags binds the engine dimensions to command flags.
type layoutFlags struct {
	cfg conceptmap.Config
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	f.cfg = conceptmap.DefaultConfig()
	cmd.Flags().Float64Var(&f.cfg.NodeWidth, "node-width", f.cfg.NodeWidth, "box width")
	cmd.Flags().Float64Var(&f.cfg.NodeHeight, "node-height", f.cfg.NodeHeight, "box height")
	cmd.Flags().Float64Var(&f.cfg.LevelGap, "level-gap", f.cfg.LevelGap, "vertical gap between levels")
	cmd.Flags().Float64Var(&f.cfg.NodeGap, "node-gap", f.cfg.NodeGap, "horizontal gap between boxes")
}

// resolve layers the engine defaults, the config file, and explicitly set
// flags, in that order.
func (f *layoutFlags) resolve(cmd *cobra.Command, file *fileConfig) conceptmap.Config {
	cfg := conceptmap.DefaultConfig()
	fields := []struct {
		key, flag string
		dst       *float64
		fromFile  float64
		fromFlag  float64
	}{
		{"node_width", "node-width", &cfg.NodeWidth, file.Layout.NodeWidth, f.cfg.NodeWidth},
		{"node_height", "node-height", &cfg.NodeHeight, file.Layout.NodeHeight, f.cfg.NodeHeight},
		{"level_gap", "level-gap", &cfg.LevelGap, file.Layout.LevelGap, f.cfg.LevelGap},
		{"node_gap", "node-gap", &cfg.NodeGap, file.Layout.NodeGap, f.cfg.NodeGap},
	}
	for _, fld := range fields {
		if file.defined[fld.key] {
			*fld.dst = fld.fromFile
		}
		if cmd.Flags().Changed(fld.flag) {
			*fld.dst = fld.fromFlag
		}
	}
	return cfg
}
