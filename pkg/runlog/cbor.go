package runlog

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// A run log is a plain sequence of CBOR maps, one per Event, keyed by the
// small integers in the struct tags.

// Shape limits for decoded events. Event nests its payload one map deep and
// ResultEvent.Files is the only array.
const (
	maxEventNesting = 4
	maxEventFields  = 16
	maxResultFiles  = 1024
)

var (
	eventEncMode cbor.EncMode
	eventDecMode cbor.DecMode
)

func init() {
	var err error

	// Timestamps keep nanoseconds and carry tag 0, so generic CBOR tools
	// show them as times.
	eventEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
		TimeTag:       cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("runlog: event encoder mode: %v", err))
	}

	// Logs are only ever written by FileLogger, so anything that does not
	// fit the event shape is corruption.
	eventDecMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		TimeTag:          cbor.DecTagOptional,
		MaxNestedLevels:  maxEventNesting,
		MaxMapPairs:      maxEventFields,
		MaxArrayElements: maxResultFiles,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("runlog: event decoder mode: %v", err))
	}
}

// EncodeEvent returns the log record for one event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEncMode.Marshal(event)
}

// DecodeEvent parses a single log record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func newDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}
