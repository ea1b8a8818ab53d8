package marketdatav1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = "2025-07-17T08:05:03.360677248Z,160,2,1108,A,B,5.51,100,0,817593,130,165200,851012,ARL,2025-07-17 08:05:03.360677-04"

// Test 1: Decode a full feed record
func TestParseCSV(t *testing.T) {
	ev, err := ParseCSV(sampleRecord)
	require.NoError(t, err)

	assert.Equal(t, "2025-07-17T08:05:03.360677248Z", ev.TsEvent)
	assert.Equal(t, uint8(160), ev.RType)
	assert.Equal(t, uint16(2), ev.PublisherID)
	assert.Equal(t, uint32(1108), ev.InstrumentID)
	assert.Equal(t, ActionAdd, ev.Action)
	assert.Equal(t, SideBuy, ev.Side)
	assert.Equal(t, 5.51, ev.Price)
	assert.Equal(t, uint32(100), ev.Size)
	assert.Equal(t, uint8(0), ev.ChannelID)
	assert.Equal(t, uint64(817593), ev.OrderID)
	assert.Equal(t, uint8(130), ev.Flags)
	assert.Equal(t, int32(165200), ev.TsInDelta)
	assert.Equal(t, uint32(851012), ev.Sequence)
	assert.Equal(t, "ARL", ev.Symbol)
	assert.Equal(t, "2025-07-17 08:05:03.360677-04", ev.Datetime)
}

// Test 2: A trailing newline does not break decoding
func TestParseCSV_TrailingNewline(t *testing.T) {
	ev, err := ParseCSV(sampleRecord + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-17 08:05:03.360677-04", ev.Datetime)
}

// Test 3: Decode failures per field
func TestParseCSV_Errors(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "a,b,c"},
		{name: "empty line", line: ""},
		{name: "bad rtype", line: "ts,xx,2,1108,A,B,5.51,100,0,817593,130,165200,851012,ARL,dt"},
		{name: "bad price", line: "ts,160,2,1108,A,B,noprice,100,0,817593,130,165200,851012,ARL,dt"},
		{name: "bad size", line: "ts,160,2,1108,A,B,5.51,-1,0,817593,130,165200,851012,ARL,dt"},
		{name: "bad order id", line: "ts,160,2,1108,A,B,5.51,100,0,abc,130,165200,851012,ARL,dt"},
		{name: "bad sequence", line: "ts,160,2,1108,A,B,5.51,100,0,817593,130,165200,seq,ARL,dt"},
		{name: "empty action", line: "ts,160,2,1108,,B,5.51,100,0,817593,130,165200,851012,ARL,dt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV(tc.line)
			assert.Error(t, err)
		})
	}
}

// Test 4: Encode and decode round trip
func TestCSVRecord_RoundTrip(t *testing.T) {
	ev, err := ParseCSV(sampleRecord)
	require.NoError(t, err)

	assert.Equal(t, sampleRecord, ev.CSVRecord())
}

// Test 5: Validation rules per action
func TestEvent_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		event   *Event
		wantErr bool
	}{
		{
			name:  "valid add",
			event: &Event{Action: ActionAdd, Side: SideBuy, Price: 5.51, Size: 100, OrderID: 1},
		},
		{
			name:  "valid modify",
			event: &Event{Action: ActionModify, Side: SideAsk, Price: 5.51, Size: 100, OrderID: 1},
		},
		{
			name:  "cancel needs only an order id",
			event: &Event{Action: ActionCancel, OrderID: 1},
		},
		{
			name:  "trade needs only an order id",
			event: &Event{Action: ActionTrade, OrderID: 1},
		},
		{
			name:    "missing order id",
			event:   &Event{Action: ActionAdd, Side: SideBuy, Price: 5.51, Size: 100},
			wantErr: true,
		},
		{
			name:    "add without side",
			event:   &Event{Action: ActionAdd, Price: 5.51, Size: 100, OrderID: 1},
			wantErr: true,
		},
		{
			name:    "add with none side",
			event:   &Event{Action: ActionAdd, Side: SideNone, Price: 5.51, Size: 100, OrderID: 1},
			wantErr: true,
		},
		{
			name:    "add with zero price",
			event:   &Event{Action: ActionAdd, Side: SideBuy, Price: 0, Size: 100, OrderID: 1},
			wantErr: true,
		},
		{
			name:    "add with zero size",
			event:   &Event{Action: ActionAdd, Side: SideBuy, Price: 5.51, Size: 0, OrderID: 1},
			wantErr: true,
		},
		{
			name:    "unknown action",
			event:   &Event{Action: "X", OrderID: 1},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Test 6: Side aliases
func TestSide_IsBuy(t *testing.T) {
	assert.True(t, SideBuy.IsBuy())
	assert.True(t, Side("b").IsBuy())
	assert.False(t, SideAsk.IsBuy())
	assert.False(t, SideSell.IsBuy())
	assert.False(t, SideNone.IsBuy())
}
