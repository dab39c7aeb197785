package journal

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// CargoItem is one line of a hold inventory.
type CargoItem struct {
	Name          string `json:"Name"`
	NameLocalised string `json:"Name_Localised"`
	Count         int    `json:"Count"`
	Stolen        int    `json:"Stolen"`
	MissionID     *int64 `json:"MissionID"`
}

// CargoReport is the content of the cargo report file written next to the journals.
type CargoReport struct {
	Timestamp time.Time   `json:"timestamp"`
	Vessel    string      `json:"Vessel"`
	Count     int         `json:"Count"`
	Inventory []CargoItem `json:"Inventory"`
}

// Total sums the per-item counts of the inventory.
func (r CargoReport) Total() int {
	return TotalCount(r.Inventory)
}

// TotalCount sums the counts of an inventory list.
func TotalCount(items []CargoItem) int {
	total := 0
	for _, item := range items {
		total += item.Count
	}
	return total
}

// ReadCargo reads the cargo report at path. A missing or unreadable report
// yields an empty inventory.
func ReadCargo(path string) CargoReport {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to read cargo report; treating hold as empty")
		return CargoReport{}
	}

	var report CargoReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to parse cargo report; treating hold as empty")
		return CargoReport{}
	}
	log.Debug().Str("file", path).Int("total", report.Total()).Msg("parsed cargo report")
	return report
}
