package journal

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TypedVariants(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":"2024-05-01T10:00:00Z","event":"Docked","StationName":"Jameson Memorial","StarSystem":"Shinrarta Dezhra","SystemAddress":3932277478106,"MarketID":128666762}`,
		`{"timestamp":"2024-05-01T10:01:00Z","event":"MarketBuy","MarketID":128666762,"Type":"steel","Type_Localised":"Steel","Count":5,"BuyPrice":4000,"TotalCost":20000}`,
		`{"timestamp":"2024-05-01T10:02:00Z","event":"MarketSell","MarketID":128666762,"Type":"steel","Count":5,"SellPrice":4100,"TotalSale":20500}`,
		`{"timestamp":"2024-05-01T10:03:00Z","event":"CargoDepot","MissionID":7,"UpdateType":"Deliver","CargoType":"Aluminium","Count":3,"EndMarketID":128666762}`,
		`{"timestamp":"2024-05-01T10:04:00Z","event":"Cargo","Vessel":"Ship","Count":0}`,
		`{"timestamp":"2024-05-01T10:05:00Z","event":"Undocked","StationName":"Jameson Memorial"}`,
	}, "\n")

	events, err := Decode(strings.NewReader(input), "test")
	require.NoError(t, err)
	require.Len(t, events, 6)

	docked, ok := events[0].(*Docked)
	require.True(t, ok)
	assert.Equal(t, "Jameson Memorial", docked.StationName)
	require.NotNil(t, docked.MarketID)
	assert.Equal(t, int64(128666762), *docked.MarketID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), docked.Time())

	buy, ok := events[1].(*MarketBuy)
	require.True(t, ok)
	assert.Equal(t, "Steel", buy.ItemName())
	assert.Equal(t, 5, buy.Count)
	assert.Equal(t, int64(20000), buy.TotalCost)

	sell, ok := events[2].(*MarketSell)
	require.True(t, ok)
	assert.Equal(t, "steel", sell.ItemName())

	depot, ok := events[3].(*CargoDepot)
	require.True(t, ok)
	assert.True(t, depot.IsDelivery())
	assert.Equal(t, "Aluminium", depot.ItemName())

	cargo, ok := events[4].(*Cargo)
	require.True(t, ok)
	assert.False(t, cargo.HasInventory())

	assert.Equal(t, "Undocked", events[5].Kind())
	assert.IsType(t, &Unhandled{}, events[5])
}

func TestDecode_SkipsMalformedLines(t *testing.T) {
	lines := []string{`{"timestamp":"2024-05-01T10:00:00Z","event":"MarketBuy",`}
	for i := 0; i < 9; i++ {
		lines = append(lines, `{"timestamp":"2024-05-01T10:01:00Z","event":"MarketBuy","MarketID":1,"Type":"gold","Count":1}`)
	}
	lines = append(lines,
		``,
		`{"event":"MarketBuy","MarketID":1}`,
		`{"timestamp":"2024-05-01T10:01:00Z"}`,
		`{"timestamp":"2024-05-01T10:01:00Z","event":"MarketBuy","Count":"five"}`,
	)

	events, err := Decode(strings.NewReader(strings.Join(lines, "\n")), "test")
	require.NoError(t, err)
	assert.Len(t, events, 9)
}

func TestDecode_SkipsOversizedLine(t *testing.T) {
	huge := `{"timestamp":"2024-05-01T10:00:30Z","event":"Music","MusicTrack":"` + strings.Repeat("x", maxLineSize+1024) + `"}`
	input := strings.Join([]string{
		`{"timestamp":"2024-05-01T10:00:00Z","event":"Docked","StationName":"Jameson Memorial","StarSystem":"Shinrarta Dezhra","SystemAddress":3932277478106,"MarketID":128666762}`,
		huge,
		`{"timestamp":"2024-05-01T10:01:00Z","event":"MarketBuy","MarketID":128666762,"Type":"steel","Count":5,"BuyPrice":4000,"TotalCost":20000}`,
		`{"timestamp":"2024-05-01T10:02:00Z","event":"Undocked"}`,
	}, "\n")

	events, err := Decode(strings.NewReader(input), "test")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.IsType(t, &Docked{}, events[0])
	assert.IsType(t, &MarketBuy{}, events[1])
	assert.Equal(t, "Undocked", events[2].Kind())
}

func TestDecode_LastLineWithoutNewline(t *testing.T) {
	events, err := Decode(strings.NewReader(`{"timestamp":"2024-05-01T10:02:00Z","event":"Undocked"}`), "test")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestDecode_ReadErrorFailsFile(t *testing.T) {
	r := io.MultiReader(
		strings.NewReader(`{"timestamp":"2024-05-01T10:02:00Z","event":"Undocked"}`+"\n"),
		iotest.ErrReader(errors.New("input/output error")),
	)
	events, err := Decode(r, "test")
	assert.Error(t, err)
	assert.Nil(t, events)
}

func TestResolveItemName(t *testing.T) {
	assert.Equal(t, "Liquid Oxygen", ResolveItemName("Liquid Oxygen", "liquidoxygen"))
	assert.Equal(t, "liquidoxygen", ResolveItemName("", "liquidoxygen"))
	assert.Equal(t, UnknownItem, ResolveItemName("", ""))

	buy := &MarketBuy{}
	assert.Equal(t, "Unknown", buy.ItemName())
}

func TestReadFile_Unreadable(t *testing.T) {
	dir := t.TempDir()

	events, err := ReadFile(filepath.Join(dir, "Journal.2024-05-01T101010.01.log"))
	assert.Error(t, err)
	assert.Empty(t, events)

	// A directory matching the journal pattern opens but cannot be read.
	sub := filepath.Join(dir, "Journal.2024-05-01T111010.01.log")
	require.NoError(t, os.Mkdir(sub, 0o755))
	events, err = ReadFile(sub)
	assert.Error(t, err)
	assert.Empty(t, events)
}

func TestReadCargo(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "Cargo.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"timestamp":"2024-05-01T10:00:00Z","Vessel":"Ship","Count":12,
		"Inventory":[{"Name":"steel","Count":7,"Stolen":0},{"Name":"titanium","Name_Localised":"Titanium","Count":5,"Stolen":0}]}`), 0o600))
	assert.Equal(t, 12, ReadCargo(good).Total())

	broken := filepath.Join(dir, "Broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"Inventory":[`), 0o600))
	assert.Equal(t, 0, ReadCargo(broken).Total())

	assert.Equal(t, 0, ReadCargo(filepath.Join(dir, "absent.json")).Total())
}
