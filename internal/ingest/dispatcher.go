package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"trade-ledger-backend/config"
	"trade-ledger-backend/internal/journal"
	"trade-ledger-backend/internal/model"
	"trade-ledger-backend/internal/notification"
	"trade-ledger-backend/internal/store"
)

// Dispatcher applies decoded journal events to the purchase ledger.
type Dispatcher struct {
	colonized config.SystemSet
	readCargo func() journal.CargoReport
}

// NewDispatcher creates a dispatcher. readCargo is consulted for Cargo events
// that carry no inline inventory.
func NewDispatcher(colonized config.SystemSet, readCargo func() journal.CargoReport) *Dispatcher {
	if readCargo == nil {
		readCargo = func() journal.CargoReport { return journal.CargoReport{} }
	}
	return &Dispatcher{colonized: colonized, readCargo: readCargo}
}

// Apply runs events through the ledger in order, starting from state, and
// returns the state after the last event. Failures affect only the event that
// caused them. The logger is taken from ctx.
func (d *Dispatcher) Apply(ctx context.Context, state RunState, l store.Ledger, events []journal.Event) (RunState, Tally) {
	logger := zerolog.Ctx(ctx)
	var tally Tally
	for _, ev := range events {
		tally.Events++
		switch e := ev.(type) {
		case *journal.Docked:
			state = d.onDocked(logger, state, e)
		case *journal.MarketBuy:
			d.onMarketBuy(logger, state, e, l, &tally)
		case *journal.MarketSell:
			d.onMarketSell(logger, state, e, l, &tally)
		case *journal.CargoDepot:
			d.onCargoDepot(logger, state, e, l, &tally)
		case *journal.Cargo:
			state = d.onCargo(logger, state, e, l, &tally)
		}
	}
	return state, tally
}

func (d *Dispatcher) onDocked(logger *zerolog.Logger, state RunState, e *journal.Docked) RunState {
	if e.StationName == "" || e.StarSystem == "" || e.SystemAddress == nil || e.MarketID == nil {
		logger.Warn().Time("timestamp", e.Timestamp).Str("station", e.StationName).
			Msg("docked record is missing station details; keeping previous location")
		return state
	}
	state.Docking = &DockingContext{
		StationName:   e.StationName,
		StarSystem:    e.StarSystem,
		SystemAddress: *e.SystemAddress,
		MarketID:      *e.MarketID,
		DockedAt:      e.Timestamp,
	}
	logger.Debug().Str("station", e.StationName).Str("system", e.StarSystem).Msg("docked")
	return state
}

// dockedAt returns the docking context if it matches marketID, logging why not otherwise.
func dockedAt(logger *zerolog.Logger, state RunState, marketID *int64, ev journal.Event) *DockingContext {
	dock := state.Docking
	if dock == nil {
		logger.Warn().Str("event", ev.Kind()).Time("timestamp", ev.Time()).Msg("no docking context; event ignored")
		return nil
	}
	if marketID == nil || *marketID != dock.MarketID {
		evt := logger.Warn().Str("event", ev.Kind()).Time("timestamp", ev.Time()).
			Str("station", dock.StationName).Int64("docked_market", dock.MarketID)
		if marketID != nil {
			evt = evt.Int64("market", *marketID)
		}
		evt.Msg("market does not match docked station; event ignored")
		return nil
	}
	return dock
}

func (d *Dispatcher) onMarketBuy(logger *zerolog.Logger, state RunState, e *journal.MarketBuy, l store.Ledger, tally *Tally) {
	dock := dockedAt(logger, state, e.MarketID, e)
	if dock == nil {
		return
	}

	p := &model.Purchase{
		Item:         e.ItemName(),
		Count:        e.Count,
		BuyPrice:     e.BuyPrice,
		TotalCost:    e.TotalCost,
		BoughtAt:     dock.StationName,
		BoughtSystem: dock.StarSystem,
		BoughtTime:   e.Timestamp,
	}
	if err := l.InsertPurchase(p); err != nil {
		logger.Error().Err(err).Str("item", p.Item).Int("count", p.Count).Msg("failed to record purchase")
		return
	}
	tally.Inserted++
	logger.Info().Str("item", p.Item).Int("count", p.Count).Str("station", dock.StationName).Msg("recorded purchase")
}

func (d *Dispatcher) onMarketSell(logger *zerolog.Logger, state RunState, e *journal.MarketSell, l store.Ledger, tally *Tally) {
	dock := dockedAt(logger, state, e.MarketID, e)
	if dock == nil {
		return
	}

	item := e.ItemName()
	n, err := l.MarkSold(item, e.Count, store.Transition{Station: dock.StationName, At: e.Timestamp})
	if err != nil {
		logger.Error().Err(err).Str("item", item).Int("count", e.Count).Msg("failed to mark purchase sold")
		return
	}
	if n == 0 {
		logger.Warn().Str("item", item).Int("count", e.Count).Msg("no open purchase matches sale")
		return
	}
	tally.Sold++
	tally.Notices = append(tally.Notices, notification.Notice{
		Kind: notification.NoticeSold, Item: item, Count: e.Count, Station: dock.StationName, At: e.Timestamp,
	})
	logger.Info().Str("item", item).Int("count", e.Count).Str("station", dock.StationName).Msg("marked purchase sold")
}

func (d *Dispatcher) onCargoDepot(logger *zerolog.Logger, state RunState, e *journal.CargoDepot, l store.Ledger, tally *Tally) {
	if !e.IsDelivery() {
		return
	}
	dock := dockedAt(logger, state, e.EndMarketID, e)
	if dock == nil {
		return
	}

	item := e.ItemName()
	n, err := l.MarkDelivered(item, e.Count, store.Transition{Station: dock.StationName, At: e.Timestamp})
	if err != nil {
		logger.Error().Err(err).Str("item", item).Int("count", e.Count).Msg("failed to mark purchase delivered")
		return
	}
	if n == 0 {
		logger.Warn().Str("item", item).Int("count", e.Count).Int64("mission", e.MissionID).Msg("no open purchase matches delivery")
		return
	}
	tally.Delivered++
	tally.Notices = append(tally.Notices, notification.Notice{
		Kind: notification.NoticeDelivered, Item: item, Count: e.Count, Station: dock.StationName, At: e.Timestamp,
	})
	logger.Info().Str("item", item).Int("count", e.Count).Str("station", dock.StationName).Msg("marked purchase delivered")
}

// onCargo updates the hold snapshot. A hold that empties while docked in a
// colonized system is taken to mean every open purchase was unloaded there.
func (d *Dispatcher) onCargo(logger *zerolog.Logger, state RunState, e *journal.Cargo, l store.Ledger, tally *Tally) RunState {
	var total int
	if e.HasInventory() {
		total = journal.TotalCount(e.Inventory)
	} else {
		total = d.readCargo().Total()
	}

	prev := state.Cargo
	state.Cargo = &CargoSnapshot{Total: total}

	dock := state.Docking
	if total != 0 || prev == nil || prev.Total <= 0 || dock == nil || !d.colonized.Contains(dock.SystemAddress) {
		return state
	}

	n, err := l.MarkAllOpenDelivered(store.Transition{Station: dock.StationName, At: e.Timestamp})
	if err != nil {
		logger.Error().Err(err).Str("station", dock.StationName).Msg("failed to deliver open purchases")
		return state
	}
	if n == 0 {
		return state
	}
	tally.BulkDelivered += int(n)
	tally.Notices = append(tally.Notices, notification.Notice{
		Kind: notification.NoticeBulkDelivered, Count: int(n), Station: dock.StationName, At: e.Timestamp,
	})
	logger.Info().Int64("purchases", n).Str("station", dock.StationName).Int("previous_total", prev.Total).
		Msg("hold emptied in colonized system; open purchases delivered")
	return state
}
