package model

import (
	"encoding/json"
	"fmt"
)

// AssetType is the closed set of asset categories. Anything outside this set
// is rejected at the API boundary.
type AssetType string

const (
	AssetTypeNPC            AssetType = "NPC"
	AssetTypeLocation       AssetType = "Location"
	AssetTypeItem           AssetType = "Item"
	AssetTypeHandout        AssetType = "Handout"
	AssetTypeCharacterSheet AssetType = "Character Sheet"
	AssetTypeWorldMap       AssetType = "World Map"
	AssetTypeCampaignNotes  AssetType = "Campaign Notes"
	AssetTypeLore           AssetType = "Lore"
	AssetTypeCustom         AssetType = "Custom"
	AssetTypeOther          AssetType = "Other"
)

var assetTypes = map[AssetType]struct{}{
	AssetTypeNPC:            {},
	AssetTypeLocation:       {},
	AssetTypeItem:           {},
	AssetTypeHandout:        {},
	AssetTypeCharacterSheet: {},
	AssetTypeWorldMap:       {},
	AssetTypeCampaignNotes:  {},
	AssetTypeLore:           {},
	AssetTypeCustom:         {},
	AssetTypeOther:          {},
}

func ParseAssetType(value string) (AssetType, error) {
	t := AssetType(value)
	if _, ok := assetTypes[t]; !ok {
		return "", fmt.Errorf("unknown asset type: %q", value)
	}
	return t, nil
}

func (t AssetType) String() string {
	return string(t)
}

func (t *AssetType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAssetType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
