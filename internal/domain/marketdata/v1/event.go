package marketdatav1

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muhammadchandra19/orderbook-recon/pkg/errors"
)

// Action represents the lifecycle action an MBO event carries.
type Action string

const (
	// ActionAdd places a new resting order.
	ActionAdd Action = "A"
	// ActionCancel removes a resting order.
	ActionCancel Action = "C"
	// ActionModify changes the price/size of a resting order.
	ActionModify Action = "M"
	// ActionReplace is treated identically to ActionModify.
	ActionReplace Action = "R"
	// ActionTrade reports an execution against a resting order.
	ActionTrade Action = "T"
)

// Side represents which side of the book an order rests on.
type Side string

const (
	// SideBuy is the bid side.
	SideBuy Side = "B"
	// SideAsk is the ask side.
	SideAsk Side = "A"
	// SideSell is an alternate spelling of the ask side used by some feeds.
	SideSell Side = "S"
	// SideNone is used by events that carry no side (Cancel/Trade).
	SideNone Side = "N"
)

// IsBuy reports whether the side is the bid side.
func (s Side) IsBuy() bool {
	return s == SideBuy || s == "b"
}

// csvFieldCount is the number of fields in one MBO CSV record.
const csvFieldCount = 15

// Event is the normalized representation of one MBO market message.
// The field layout follows the upstream feed record:
// ts_event, rtype, publisher_id, instrument_id, action, side, price, size,
// channel_id, order_id, flags, ts_in_delta, sequence, symbol, datetime.
type Event struct {
	TsEvent      string  `json:"ts_event"`
	RType        uint8   `json:"rtype"`
	PublisherID  uint16  `json:"publisher_id"`
	InstrumentID uint32  `json:"instrument_id"`
	Action       Action  `json:"action"`
	Side         Side    `json:"side"`
	Price        float64 `json:"price"`
	Size         uint32  `json:"size"`
	ChannelID    uint8   `json:"channel_id"`
	OrderID      uint64  `json:"order_id"`
	Flags        uint8   `json:"flags"`
	TsInDelta    int32   `json:"ts_in_delta"`
	Sequence     uint32  `json:"sequence"`
	Symbol       string  `json:"symbol"`
	Datetime     string  `json:"datetime"`
}

// ParseCSV decodes one CSV record into an Event.
// Decode failures indicate upstream corruption and surface as hard errors.
func ParseCSV(line string) (*Event, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(fields) < csvFieldCount {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("expected %d fields, got %d", csvFieldCount, len(fields)),
			string(errors.EventDecodeError),
			"record",
		)
	}

	ev := &Event{
		TsEvent:  fields[0],
		Symbol:   fields[13],
		Datetime: fields[14],
	}

	rtype, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return nil, decodeFieldError("rtype", fields[1])
	}
	ev.RType = uint8(rtype)

	publisherID, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return nil, decodeFieldError("publisher_id", fields[2])
	}
	ev.PublisherID = uint16(publisherID)

	instrumentID, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return nil, decodeFieldError("instrument_id", fields[3])
	}
	ev.InstrumentID = uint32(instrumentID)

	if fields[4] == "" {
		return nil, decodeFieldError("action", fields[4])
	}
	ev.Action = Action(fields[4])

	if fields[5] != "" {
		ev.Side = Side(fields[5])
	}

	price, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return nil, decodeFieldError("price", fields[6])
	}
	ev.Price = price

	size, err := strconv.ParseUint(fields[7], 10, 32)
	if err != nil {
		return nil, decodeFieldError("size", fields[7])
	}
	ev.Size = uint32(size)

	channelID, err := strconv.ParseUint(fields[8], 10, 8)
	if err != nil {
		return nil, decodeFieldError("channel_id", fields[8])
	}
	ev.ChannelID = uint8(channelID)

	orderID, err := strconv.ParseUint(fields[9], 10, 64)
	if err != nil {
		return nil, decodeFieldError("order_id", fields[9])
	}
	ev.OrderID = orderID

	flags, err := strconv.ParseUint(fields[10], 10, 8)
	if err != nil {
		return nil, decodeFieldError("flags", fields[10])
	}
	ev.Flags = uint8(flags)

	tsInDelta, err := strconv.ParseInt(fields[11], 10, 32)
	if err != nil {
		return nil, decodeFieldError("ts_in_delta", fields[11])
	}
	ev.TsInDelta = int32(tsInDelta)

	sequence, err := strconv.ParseUint(fields[12], 10, 32)
	if err != nil {
		return nil, decodeFieldError("sequence", fields[12])
	}
	ev.Sequence = uint32(sequence)

	return ev, nil
}

// CSVRecord encodes the event back into the feed's CSV layout.
func (e *Event) CSVRecord() string {
	fields := []string{
		e.TsEvent,
		strconv.FormatUint(uint64(e.RType), 10),
		strconv.FormatUint(uint64(e.PublisherID), 10),
		strconv.FormatUint(uint64(e.InstrumentID), 10),
		string(e.Action),
		string(e.Side),
		strconv.FormatFloat(e.Price, 'f', -1, 64),
		strconv.FormatUint(uint64(e.Size), 10),
		strconv.FormatUint(uint64(e.ChannelID), 10),
		strconv.FormatUint(e.OrderID, 10),
		strconv.FormatUint(uint64(e.Flags), 10),
		strconv.FormatInt(int64(e.TsInDelta), 10),
		strconv.FormatUint(uint64(e.Sequence), 10),
		e.Symbol,
		e.Datetime,
	}
	return strings.Join(fields, ",")
}

// Validate checks that the fields required by the event's action are present.
// Cancel and Trade need only an order id; Add and Modify also need side,
// price and size.
func (e *Event) Validate() error {
	if e.OrderID == 0 {
		return malformedFieldError(e, "order_id", "order id is required")
	}

	switch e.Action {
	case ActionAdd, ActionModify, ActionReplace:
		if e.Side == "" || e.Side == SideNone {
			return malformedFieldError(e, "side", fmt.Sprintf("%s event requires a side", e.Action))
		}
		if e.Price <= 0 {
			return malformedFieldError(e, "price", fmt.Sprintf("%s event requires a positive price", e.Action))
		}
		if e.Size == 0 {
			return malformedFieldError(e, "size", fmt.Sprintf("%s event requires a positive size", e.Action))
		}
	case ActionCancel, ActionTrade:
		// order id alone is sufficient
	default:
		return malformedFieldError(e, "action", fmt.Sprintf("unknown action %q", string(e.Action)))
	}

	return nil
}

func decodeFieldError(field, value string) error {
	return errors.NewErrorDetails(
		fmt.Sprintf("cannot decode field %s from %q", field, value),
		string(errors.EventDecodeError),
		field,
	)
}

func malformedFieldError(e *Event, field, message string) error {
	return errors.NewErrorDetailsWithObject(message, string(errors.MalformedEventError), field, e)
}
