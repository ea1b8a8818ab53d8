package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	"github.com/segmentio/kafka-go"
)

// liveOrder tracks an order the generator has added and not yet cancelled,
// so Cancel and Modify events reference real order IDs.
type liveOrder struct {
	orderID uint64
	side    marketdatav1.Side
	price   float64
	size    uint32
}

// generateEvents creates a synthetic MBO stream: mostly adds, with cancels
// and modifies against previously added orders.
func generateEvents(count int, symbol string, basePrice float64, priceSpread float64) []*marketdatav1.Event {
	events := make([]*marketdatav1.Event, 0, count)
	live := make([]liveOrder, 0, count)
	nextOrderID := uint64(1000000)

	for i := 0; i < count; i++ {
		roll := rand.Float64()
		now := time.Now().UTC()

		ev := &marketdatav1.Event{
			TsEvent:      now.Format(time.RFC3339Nano),
			RType:        160,
			PublisherID:  2,
			InstrumentID: 1108,
			ChannelID:    0,
			Flags:        130,
			TsInDelta:    int32(rand.Intn(20000) + 1000),
			Sequence:     uint32(i + 1),
			Symbol:       symbol,
			Datetime:     now.Format("2006-01-02 15:04:05.000000-07"),
		}

		switch {
		case roll < 0.2 && len(live) > 0:
			// Cancel a random live order
			idx := rand.Intn(len(live))
			o := live[idx]
			live = append(live[:idx], live[idx+1:]...)

			ev.Action = marketdatav1.ActionCancel
			ev.Side = o.side
			ev.Price = o.price
			ev.Size = o.size
			ev.OrderID = o.orderID

		case roll < 0.3 && len(live) > 0:
			// Modify a random live order: new price, new size
			idx := rand.Intn(len(live))
			o := live[idx]

			o.price = roundPrice(o.price + (rand.Float64()-0.5)*priceSpread*0.2)
			o.size = uint32(rand.Intn(50) + 1)
			live[idx] = o

			ev.Action = marketdatav1.ActionModify
			ev.Side = o.side
			ev.Price = o.price
			ev.Size = o.size
			ev.OrderID = o.orderID

		default:
			// Add a new order
			nextOrderID++
			isBid := rand.Float64() < 0.5

			o := liveOrder{
				orderID: nextOrderID,
				size:    uint32(rand.Intn(50) + 1),
			}
			if isBid {
				o.side = marketdatav1.SideBuy
				o.price = roundPrice(basePrice - rand.Float64()*priceSpread)
			} else {
				o.side = marketdatav1.SideAsk
				o.price = roundPrice(basePrice + rand.Float64()*priceSpread)
			}
			live = append(live, o)

			ev.Action = marketdatav1.ActionAdd
			ev.Side = o.side
			ev.Price = o.price
			ev.Size = o.size
			ev.OrderID = o.orderID
		}

		events = append(events, ev)
	}

	return events
}

// roundPrice keeps generated prices on 2 decimal places.
func roundPrice(p float64) float64 {
	if p <= 0 {
		p = 0.01
	}
	return float64(int(p*100)) / 100
}

// loadEvents reads CSV records from a feed capture file, one record per
// line, skipping a header line when present.
func loadEvents(path string) ([]*marketdatav1.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*marketdatav1.Event
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 && strings.HasPrefix(line, "ts_event") {
			continue
		}

		ev, err := marketdatav1.ParseCSV(line)
		if err != nil {
			log.Printf("Skipping line %d: %v", lineNo, err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "mbo-events", "Kafka topic name")
		file        = flag.String("file", "", "CSV file with MBO records (optional, generates events if not provided)")
		delay       = flag.Duration("delay", 10*time.Millisecond, "Delay between sending events")
		count       = flag.Int("count", 1000, "Number of events to generate")
		symbol      = flag.String("symbol", "ARL", "Instrument symbol for generated events")
		basePrice   = flag.Float64("base-price", 100.0, "Base price for generated events")
		priceSpread = flag.Float64("price-spread", 5.0, "Price spread range")
	)
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	// Create Kafka writer
	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	// Load events
	var events []*marketdatav1.Event
	if *file != "" {
		loaded, err := loadEvents(*file)
		if err != nil {
			log.Fatalf("Failed to load events from %s: %v", *file, err)
		}
		events = loaded
		log.Printf("Loaded %d events from file: %s", len(events), *file)
	} else {
		log.Printf("Generating %d events...", *count)
		events = generateEvents(*count, *symbol, *basePrice, *priceSpread)
		log.Printf("Generated %d events", len(events))
	}

	log.Printf("Sending events to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between events: %v", *delay)

	// Send events
	adds, cancels, modifies := 0, 0, 0
	for i, ev := range events {
		msg := kafka.Message{
			Key:   []byte(ev.Symbol),
			Value: []byte(ev.CSVRecord()),
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send event %d (order %d): %v", i+1, ev.OrderID, err)
			continue
		}

		switch ev.Action {
		case marketdatav1.ActionAdd:
			adds++
		case marketdatav1.ActionCancel:
			cancels++
		case marketdatav1.ActionModify:
			modifies++
		}

		// Log progress every 100 events or for the last one
		if (i+1)%100 == 0 || i == len(events)-1 {
			log.Printf("Sent event %d/%d: %s %s order %d | Size: %d @ %.2f",
				i+1, len(events), ev.Action, ev.Side, ev.OrderID, ev.Size, ev.Price)
		}

		if i < len(events)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d events!", len(events))
	log.Printf("Summary: %d adds, %d cancels, %d modifies", adds, cancels, modifies)
}
