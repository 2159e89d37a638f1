// Package settings builds the Droptimizer settings matrix from indexed overrides.
//
// Overrides are key-value pairs of the form DROPTIMIZER_<index>_<FIELD>. Every
// distinct index yields one SimulationConfig; the list is then expanded per raid
// difficulty so each difficulty carries its own scalar upgrade cap.
package settings

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// Prefix is the key prefix shared by all simulation overrides.
const Prefix = "DROPTIMIZER_"

// Field names recognised after the index.
const (
	FieldFightDuration     = "FIGHT_DURATION"
	FieldFightStyle        = "FIGHT_STYLE"
	FieldMatchEquippedGear = "MATCH_EQUIPPED_GEAR"
	FieldNumberOfBosses    = "NUMBER_OF_BOSSES"
	FieldPowerInfusion     = "POWER_INFUSION"
	FieldSockets           = "SOCKETS"
	FieldUpgradeLevel      = "UPGRADE_LEVEL_"
)

var keyPattern = regexp.MustCompile(`^` + Prefix + `(\d+)_([A-Z0-9_]+)$`)

// DefaultConfig returns the configuration used for any field not overridden.
func DefaultConfig() types.SimulationConfig {
	return types.SimulationConfig{
		FightDuration:  300,
		FightStyle:     "Patchwerk",
		NumberOfBosses: 1,
		UpgradeLevel:   map[types.Difficulty]int{},
	}
}

// Build parses overrides into an ordered list of configurations, one per index in
// ascending order. With no indexed keys it returns exactly one default configuration.
// A malformed integer fails the whole build.
func Build(overrides map[string]string) ([]types.SimulationConfig, error) {
	grouped := make(map[int]map[string]string)
	for key, value := range overrides {
		m := keyPattern.FindStringSubmatch(strings.ToUpper(key))
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if grouped[index] == nil {
			grouped[index] = make(map[string]string)
		}
		grouped[index][m[2]] = value
	}

	if len(grouped) == 0 {
		return []types.SimulationConfig{DefaultConfig()}, nil
	}

	indices := make([]int, 0, len(grouped))
	for index := range grouped {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	configs := make([]types.SimulationConfig, 0, len(indices))
	for _, index := range indices {
		cfg, err := buildOne(index, grouped[index])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func buildOne(index int, fields map[string]string) (types.SimulationConfig, error) {
	cfg := DefaultConfig()
	cfg.Index = index

	// Sorted so the first malformed field reported is deterministic.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := fields[name]
		switch {
		case name == FieldFightDuration:
			n, err := parseInt(index, name, value)
			if err != nil {
				return cfg, err
			}
			cfg.FightDuration = n
		case name == FieldNumberOfBosses:
			n, err := parseInt(index, name, value)
			if err != nil {
				return cfg, err
			}
			cfg.NumberOfBosses = n
		case name == FieldFightStyle:
			cfg.FightStyle = strings.TrimSpace(value)
		case name == FieldMatchEquippedGear:
			cfg.MatchEquippedGear = ParseBool(value)
		case name == FieldPowerInfusion:
			cfg.PowerInfusion = ParseBool(value)
		case name == FieldSockets:
			cfg.Sockets = ParseBool(value)
		case strings.HasPrefix(name, FieldUpgradeLevel) && len(name) > len(FieldUpgradeLevel):
			n, err := parseInt(index, name, value)
			if err != nil {
				return cfg, err
			}
			difficulty := types.Difficulty(strings.ToLower(strings.TrimPrefix(name, FieldUpgradeLevel)))
			cfg.UpgradeLevel[difficulty] = n
		}
	}
	return cfg, nil
}

// ParseBool accepts "true", "1" and "yes" in any case; everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func parseInt(index int, field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ConfigError{
			Key:     Prefix + strconv.Itoa(index) + "_" + field,
			Value:   value,
			Message: "must be an integer",
			Cause:   err,
		}
	}
	return n, nil
}

// Expand resolves every configuration for every difficulty. Each difficulty's list
// has one entry per configuration, in the order given, with that configuration's
// cap for the difficulty substituted as a scalar.
func Expand(configs []types.SimulationConfig, difficulties []types.Difficulty) map[types.Difficulty][]types.SimSettings {
	matrix := make(map[types.Difficulty][]types.SimSettings, len(difficulties))
	for _, d := range difficulties {
		list := make([]types.SimSettings, 0, len(configs))
		for _, cfg := range configs {
			list = append(list, types.SimSettings{
				Index:             cfg.Index,
				FightDuration:     cfg.FightDuration,
				FightStyle:        cfg.FightStyle,
				MatchEquippedGear: cfg.MatchEquippedGear,
				NumberOfBosses:    cfg.NumberOfBosses,
				PowerInfusion:     cfg.PowerInfusion,
				Sockets:           cfg.Sockets,
				UpgradeLevel:      cfg.UpgradeLevelFor(d),
			})
		}
		matrix[d] = list
	}
	return matrix
}
