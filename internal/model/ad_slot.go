package model

// Placeholder ids seen in templates; slots using them never render.
var (
	placeholderClientIDs = map[string]bool{
		"ca-pub-0000000000000000": true,
		"YOUR_ADSENSE_CLIENT_ID":  true,
	}
	placeholderSlotIDs = map[string]bool{
		"0000000000":      true,
		"YOUR_AD_SLOT_ID": true,
	}
)

// AdSlot is one renderable ad placement.
type AdSlot struct {
	Position string `json:"position"`
	ClientID string `json:"client_id"`
	SlotID   string `json:"slot_id"`
}

// AdSlotConfig holds the ad network client id and slot ids per page and
// position. Slots are inert outside production.
type AdSlotConfig struct {
	ClientID   string
	Production bool
	// Slots maps page -> position -> slot id.
	Slots map[string]map[string]string
}

// Active returns the slots that should render on page, ordered by position
// name as configured in positions.
func (c AdSlotConfig) Active(page string, positions []string) []AdSlot {
	if !c.Production || c.ClientID == "" || placeholderClientIDs[c.ClientID] {
		return []AdSlot{}
	}

	slots := c.Slots[page]
	active := make([]AdSlot, 0, len(slots))
	for _, pos := range positions {
		id := slots[pos]
		if id == "" || placeholderSlotIDs[id] {
			continue
		}
		active = append(active, AdSlot{Position: pos, ClientID: c.ClientID, SlotID: id})
	}
	return active
}
