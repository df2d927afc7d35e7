// Package presets holds named configurations that replace the defaults.
package presets

import (
	"fmt"
	"slices"
	"strings"

	"github.com/attestate/kiwistand/config"
)

var presets = map[string]config.Config{}

func register(name string, conf config.Config) {
	if _, exist := presets[name]; exist {
		panic(fmt.Sprintf("preset with name %s already exists", name))
	}
	presets[name] = conf
}

// Options returns the names of registered presets.
func Options() []string {
	rst := make([]string, 0, len(presets))
	for name := range presets {
		rst = append(rst, name)
	}
	slices.Sort(rst)
	return rst
}

// Get a copy of the preset named name.
func Get(name string) (config.Config, error) {
	conf, exist := presets[name]
	if !exist {
		return config.Config{}, fmt.Errorf("preset %s is not registered. select one of %s",
			name, strings.Join(Options(), ", "))
	}
	conf.P2P.Listen = slices.Clone(conf.P2P.Listen)
	conf.P2P.Bootnodes = slices.Clone(conf.P2P.Bootnodes)
	return conf, nil
}
