// Package catalog holds the featured loot boxes shown on the auction floor.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// monetaryPrecision matches the precision bid amounts are compared at.
const monetaryPrecision int32 = 4

// ErrUnknownBox is returned when a box ID is not in the catalog.
var ErrUnknownBox = errors.New("unknown loot box")

// Rarity is a loot box tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// LootBox is a featured auction listing.
type LootBox struct {
	ID          uint64          `json:"id"`
	Title       string          `json:"title"`
	Rarity      Rarity          `json:"rarity"`
	CurrentBids int             `json:"current_bids"`
	TimeLeft    time.Duration   `json:"-"`
	MinBid      decimal.Decimal `json:"min_bid"`
}

// TimeLeftDisplay renders TimeLeft as "2h 34m".
func (b LootBox) TimeLeftDisplay() string {
	d := b.TimeLeft.Truncate(time.Minute)
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}

// MinBidDisplay renders MinBid as "5.2 ETH".
func (b LootBox) MinBidDisplay() string {
	return b.MinBid.String() + " ETH"
}

// Catalog is an immutable set of loot boxes keyed by ID.
type Catalog struct {
	boxes map[uint64]LootBox
}

// New builds a Catalog. Duplicate IDs are rejected.
func New(boxes []LootBox) (*Catalog, error) {
	c := &Catalog{boxes: make(map[uint64]LootBox, len(boxes))}
	for _, box := range boxes {
		if _, exists := c.boxes[box.ID]; exists {
			return nil, fmt.Errorf("duplicate loot box id %d", box.ID)
		}
		c.boxes[box.ID] = box
	}
	return c, nil
}

// Featured returns the showcase catalog.
func Featured() *Catalog {
	c, _ := New(featured)
	return c
}

// List returns all boxes ordered by ID.
func (c *Catalog) List() []LootBox {
	out := make([]LootBox, 0, len(c.boxes))
	for _, box := range c.boxes {
		out = append(out, box)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the box with id.
func (c *Catalog) Get(id uint64) (LootBox, error) {
	box, ok := c.boxes[id]
	if !ok {
		return LootBox{}, fmt.Errorf("%w: %d", ErrUnknownBox, id)
	}
	return box, nil
}

// Eligible returns the boxes whose minimum bid amount meets, and the IDs
// of those it falls short of.
func (c *Catalog) Eligible(amount decimal.Decimal) (eligible []LootBox, belowMinimum []uint64) {
	eligible = make([]LootBox, 0, len(c.boxes))
	belowMinimum = make([]uint64, 0)

	for _, box := range c.List() {
		if MeetsMinimumBid(amount, box) {
			eligible = append(eligible, box)
		} else {
			belowMinimum = append(belowMinimum, box.ID)
		}
	}
	return eligible, belowMinimum
}

// MeetsMinimumBid reports whether amount is at least the box's minimum bid.
// The contract does not enforce minimums, so callers treat this as advisory.
func MeetsMinimumBid(amount decimal.Decimal, box LootBox) bool {
	return amount.Round(monetaryPrecision).GreaterThanOrEqual(box.MinBid.Round(monetaryPrecision))
}

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

var featured = []LootBox{
	{ID: 1, Title: "Dragon's Hoard Chest", Rarity: RarityLegendary, CurrentBids: 47, TimeLeft: hm(2, 34), MinBid: decimal.RequireFromString("5.2")},
	{ID: 2, Title: "Mystic Rune Box", Rarity: RarityEpic, CurrentBids: 23, TimeLeft: hm(1, 18), MinBid: decimal.RequireFromString("2.1")},
	{ID: 3, Title: "Ancient Artifact Vault", Rarity: RarityRare, CurrentBids: 15, TimeLeft: hm(4, 52), MinBid: decimal.RequireFromString("0.8")},
	{ID: 4, Title: "Warrior's Cache", Rarity: RarityEpic, CurrentBids: 31, TimeLeft: hm(3, 7), MinBid: decimal.RequireFromString("1.5")},
	{ID: 5, Title: "Enchanted Treasure", Rarity: RarityRare, CurrentBids: 12, TimeLeft: hm(6, 21), MinBid: decimal.RequireFromString("0.6")},
	{ID: 6, Title: "Celestial Mystery Box", Rarity: RarityLegendary, CurrentBids: 62, TimeLeft: hm(1, 45), MinBid: decimal.RequireFromString("8.3")},
}
