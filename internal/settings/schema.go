// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Type classifies a setting's value domain.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
	TypeEnum   Type = "enum"
)

// Definition describes one known setting.
type Definition struct {
	Key     string   `json:"key"`
	Type    Type     `json:"type"`
	Default string   `json:"default"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`

	// Secret values are masked in API responses.
	Secret bool `json:"secret,omitempty"`
}

// Schema is the fixed table of known, editable settings. Order matters:
// serialization emits keys in this order, matching the game's own file
// layout closely enough for human diffing.
var Schema = []Definition{
	{Key: "Difficulty", Type: TypeEnum, Default: "None", Options: []string{"None", "Normal", "Difficult"}},
	{Key: "DayTimeSpeedRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 5},
	{Key: "NightTimeSpeedRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 5},
	{Key: "ExpRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 20},
	{Key: "PalCaptureRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 20},
	{Key: "PalSpawnNumRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 3},
	{Key: "PalDamageRateAttack", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PalDamageRateDefense", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PlayerDamageRateAttack", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PlayerDamageRateDefense", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PlayerStomachDecreaceRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PlayerStaminaDecreaceRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PalStomachDecreaceRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "PalStaminaDecreaceRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "BuildObjectDamageRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "BuildObjectDeteriorationDamageRate", Type: TypeFloat, Default: "1.000000", Min: 0, Max: 10},
	{Key: "CollectionDropRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 20},
	{Key: "CollectionObjectHpRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "CollectionObjectRespawnSpeedRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 10},
	{Key: "EnemyDropItemRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 20},
	{Key: "DeathPenalty", Type: TypeEnum, Default: "All", Options: []string{"None", "Item", "ItemAndEquipment", "All"}},
	{Key: "bEnablePlayerToPlayerDamage", Type: TypeBool, Default: "False"},
	{Key: "bEnableFriendlyFire", Type: TypeBool, Default: "False"},
	{Key: "bEnableInvaderEnemy", Type: TypeBool, Default: "True"},
	{Key: "bEnableAimAssistPad", Type: TypeBool, Default: "True"},
	{Key: "bEnableAimAssistKeyboard", Type: TypeBool, Default: "False"},
	{Key: "DropItemMaxNum", Type: TypeInt, Default: "3000", Min: 0, Max: 5000},
	{Key: "BaseCampCount", Type: TypeInt, Default: "128", Min: 0, Max: 512},
	{Key: "BaseCampWorkerMaxNum", Type: TypeInt, Default: "15", Min: 0, Max: 50},
	{Key: "DropItemAliveMaxHours", Type: TypeFloat, Default: "1.000000", Min: 0, Max: 24},
	{Key: "GuildPlayerMaxNum", Type: TypeInt, Default: "20", Min: 1, Max: 100},
	{Key: "PalEggDefaultHatchingTime", Type: TypeFloat, Default: "72.000000", Min: 0, Max: 240},
	{Key: "WorkSpeedRate", Type: TypeFloat, Default: "1.000000", Min: 0.1, Max: 5},
	{Key: "bIsPvP", Type: TypeBool, Default: "False"},
	{Key: "bCanPickupOtherGuildDeathPenaltyDrop", Type: TypeBool, Default: "False"},
	{Key: "bEnableNonLoginPenalty", Type: TypeBool, Default: "True"},
	{Key: "bEnableFastTravel", Type: TypeBool, Default: "True"},
	{Key: "bIsStartLocationSelectByMap", Type: TypeBool, Default: "True"},
	{Key: "bExistPlayerAfterLogout", Type: TypeBool, Default: "False"},
	{Key: "bEnableDefenseOtherGuildPlayer", Type: TypeBool, Default: "False"},
	{Key: "CoopPlayerMaxNum", Type: TypeInt, Default: "4", Min: 1, Max: 4},
	{Key: "ServerPlayerMaxNum", Type: TypeInt, Default: "32", Min: 1, Max: 32},
	{Key: "ServerName", Type: TypeString, Default: "Default Palworld Server"},
	{Key: "ServerDescription", Type: TypeString, Default: ""},
	{Key: "AdminPassword", Type: TypeString, Default: "", Secret: true},
	{Key: "ServerPassword", Type: TypeString, Default: "", Secret: true},
	{Key: "PublicPort", Type: TypeInt, Default: "8211", Min: 1, Max: 65535},
	{Key: "PublicIP", Type: TypeString, Default: ""},
	{Key: "RCONEnabled", Type: TypeBool, Default: "False"},
	{Key: "RCONPort", Type: TypeInt, Default: "25575", Min: 1, Max: 65535},
	{Key: "RESTAPIEnabled", Type: TypeBool, Default: "False"},
	{Key: "RESTAPIPort", Type: TypeInt, Default: "8212", Min: 1, Max: 65535},
	{Key: "bShowPlayerList", Type: TypeBool, Default: "False"},
}

// schemaIndex maps key to its definition.
var schemaIndex = func() map[string]Definition {
	idx := make(map[string]Definition, len(Schema))
	for _, d := range Schema {
		idx[d.Key] = d
	}
	return idx
}()

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	d, ok := schemaIndex[key]
	return d, ok
}

// Validate checks value against the definition and returns the
// canonical string form to store.
func (d Definition) Validate(value string) (string, error) {
	switch d.Type {
	case TypeString:
		return value, nil

	case TypeBool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			return "True", nil
		case "false":
			return "False", nil
		}
		return "", fmt.Errorf("%s: want true or false, got %q", d.Key, value)

	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("%s: want an integer, got %q", d.Key, value)
		}
		if float64(n) < d.Min || float64(n) > d.Max {
			return "", fmt.Errorf("%s: %d out of range [%g, %g]", d.Key, n, d.Min, d.Max)
		}
		return strconv.Itoa(n), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", fmt.Errorf("%s: want a number, got %q", d.Key, value)
		}
		if f < d.Min || f > d.Max {
			return "", fmt.Errorf("%s: %g out of range [%g, %g]", d.Key, f, d.Min, d.Max)
		}
		return strconv.FormatFloat(f, 'f', 6, 64), nil

	case TypeEnum:
		for _, opt := range d.Options {
			if strings.EqualFold(opt, strings.TrimSpace(value)) {
				return opt, nil
			}
		}
		return "", fmt.Errorf("%s: %q is not one of %s", d.Key, value, strings.Join(d.Options, ", "))

	default:
		return "", fmt.Errorf("%s: unknown setting type %q", d.Key, d.Type)
	}
}
