package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// maxLineSize bounds a single journal record. Loadout and Statistics records
// can run to tens of kilobytes.
const maxLineSize = 4 << 20

// ReadFile decodes the journal file at path. An error means the file could
// not be read to the end and none of its events should be applied.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open journal file")
	}
	defer f.Close()

	events, err := Decode(f, path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("events", len(events)).Msg("parsed journal file")
	return events, nil
}

// Decode reads newline-delimited journal records from r in order. Records that
// fail to decode, including lines longer than maxLineSize, are logged and
// skipped. Only a read error from r stops decoding. source only labels log lines.
func Decode(r io.Reader, source string) ([]Event, error) {
	var events []Event

	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	oversized := false
	lineNo := 0
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineSize {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err != nil && !errors.Is(err, io.EOF):
			return nil, errors.Wrapf(err, "read %s after line %d", source, lineNo)
		}
		eof := err != nil

		if len(chunk) > 0 || len(line) > 0 || oversized {
			lineNo++
			if ev, ok := decodeBuffered(line, oversized, source, lineNo); ok {
				events = append(events, ev)
			}
		}
		line = line[:0]
		oversized = false

		if eof {
			return events, nil
		}
	}
}

func decodeBuffered(line []byte, oversized bool, source string, lineNo int) (Event, bool) {
	if oversized {
		log.Warn().Str("file", source).Int("line", lineNo).Int("limit", maxLineSize).Msg("skipping oversized journal line")
		return nil, false
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	ev, err := DecodeLine(line)
	if err != nil {
		log.Warn().Err(err).Str("file", source).Int("line", lineNo).Msg("skipping invalid journal line")
		return nil, false
	}
	return ev, true
}

// DecodeLine decodes a single journal record into its typed variant.
func DecodeLine(line []byte) (Event, error) {
	var header Header
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, errors.Wrap(err, "decode record header")
	}
	if header.Event == "" {
		return nil, errors.New("record has no event field")
	}
	if header.Timestamp.IsZero() {
		return nil, errors.Errorf("%s record has no timestamp", header.Event)
	}

	var ev Event
	switch header.Event {
	case KindDocked:
		ev = &Docked{}
	case KindMarketBuy:
		ev = &MarketBuy{}
	case KindMarketSell:
		ev = &MarketSell{}
	case KindCargoDepot:
		ev = &CargoDepot{}
	case KindCargo:
		ev = &Cargo{}
	default:
		return &Unhandled{Header: header}, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, errors.Wrapf(err, "decode %s record", header.Event)
	}
	return ev, nil
}
