package journal

import "time"

// Event kinds recognised by the decoder.
const (
	KindDocked     = "Docked"
	KindMarketBuy  = "MarketBuy"
	KindMarketSell = "MarketSell"
	KindCargoDepot = "CargoDepot"
	KindCargo      = "Cargo"
)

// UnknownItem is the name used when an event carries neither a localised nor a raw type.
const UnknownItem = "Unknown"

// CargoDepotDeliver is the CargoDepot UpdateType for a mission drop-off.
const CargoDepotDeliver = "Deliver"

// Event is one decoded journal record. The concrete type is one of
// *Docked, *MarketBuy, *MarketSell, *CargoDepot, *Cargo or *Unhandled.
type Event interface {
	Kind() string
	Time() time.Time
}

// Header holds the fields every journal record carries.
type Header struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func (h Header) Kind() string    { return h.Event }
func (h Header) Time() time.Time { return h.Timestamp }

// Docked is written when the ship docks at a station.
type Docked struct {
	Header
	StationName   string `json:"StationName"`
	StationType   string `json:"StationType"`
	StarSystem    string `json:"StarSystem"`
	SystemAddress *int64 `json:"SystemAddress"`
	MarketID      *int64 `json:"MarketID"`
}

// MarketBuy is written when a commodity is bought from a station market.
type MarketBuy struct {
	Header
	MarketID      *int64 `json:"MarketID"`
	Type          string `json:"Type"`
	TypeLocalised string `json:"Type_Localised"`
	Count         int    `json:"Count"`
	BuyPrice      int64  `json:"BuyPrice"`
	TotalCost     int64  `json:"TotalCost"`
}

// ItemName resolves the purchased commodity's display name.
func (e *MarketBuy) ItemName() string {
	return ResolveItemName(e.TypeLocalised, e.Type)
}

// MarketSell is written when a commodity is sold to a station market.
type MarketSell struct {
	Header
	MarketID      *int64 `json:"MarketID"`
	Type          string `json:"Type"`
	TypeLocalised string `json:"Type_Localised"`
	Count         int    `json:"Count"`
	SellPrice     int64  `json:"SellPrice"`
	TotalSale     int64  `json:"TotalSale"`
}

// ItemName resolves the sold commodity's display name.
func (e *MarketSell) ItemName() string {
	return ResolveItemName(e.TypeLocalised, e.Type)
}

// CargoDepot is written for each step of a cargo mission (collect, deliver, wing update).
type CargoDepot struct {
	Header
	MissionID          int64  `json:"MissionID"`
	UpdateType         string `json:"UpdateType"`
	CargoType          string `json:"CargoType"`
	CargoTypeLocalised string `json:"CargoType_Localised"`
	Count              int    `json:"Count"`
	StartMarketID      *int64 `json:"StartMarketID"`
	EndMarketID        *int64 `json:"EndMarketID"`
}

// ItemName resolves the delivered commodity's display name.
func (e *CargoDepot) ItemName() string {
	return ResolveItemName(e.CargoTypeLocalised, e.CargoType)
}

// IsDelivery reports whether the record is a mission drop-off.
func (e *CargoDepot) IsDelivery() bool {
	return e.UpdateType == CargoDepotDeliver
}

// Cargo reports the current hold contents. Inventory is only present on some
// records; otherwise the contents live in the cargo report file.
type Cargo struct {
	Header
	Vessel    string      `json:"Vessel"`
	Count     int         `json:"Count"`
	Inventory []CargoItem `json:"Inventory"`
}

// HasInventory reports whether the record carried its own inventory list.
func (e *Cargo) HasInventory() bool {
	return e.Inventory != nil
}

// Unhandled is any record kind the ledger does not act on.
type Unhandled struct {
	Header
}

// ResolveItemName picks the localised name, then the raw type, then UnknownItem.
func ResolveItemName(localised, raw string) string {
	if localised != "" {
		return localised
	}
	if raw != "" {
		return raw
	}
	return UnknownItem
}
