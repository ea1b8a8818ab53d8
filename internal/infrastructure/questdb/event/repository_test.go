package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	mock "github.com/muhammadchandra19/orderbook-recon/pkg/questdb/mock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func testRecord() *Record {
	return &Record{
		Timestamp: time.Now(),
		Symbol:    "ARL",
		Action:    "A",
		Side:      "B",
		Price:     5.51,
		Size:      100,
		OrderID:   817593,
		Sequence:  851012,
	}
}

func TestEventRepository_Store(t *testing.T) {
	query := `INSERT INTO mbo_events (timestamp, symbol, action, side, price, size, order_id, sequence)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	testCases := []struct {
		name     string
		mockFn   func(record *Record, mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, err error)
		record   *Record
	}{
		{
			name: "success",
			mockFn: func(record *Record, mock *mock.MockQuestDBClient) {
				mock.EXPECT().Exec(gomock.Any(), query, record.Timestamp, record.Symbol, record.Action, record.Side, record.Price, record.Size, record.OrderID, record.Sequence).Return(nil)
			},
			record: testRecord(),
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "error",
			mockFn: func(record *Record, mock *mock.MockQuestDBClient) {
				mock.EXPECT().Exec(gomock.Any(), query, record.Timestamp, record.Symbol, record.Action, record.Side, record.Price, record.Size, record.OrderID, record.Sequence).Return(errors.New("error"))
			},
			record: testRecord(),
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(tc.record, mock)

			repo := NewRepository(mock)
			err := repo.Store(context.Background(), tc.record)
			tc.assertFn(t, err)
		})
	}
}

func TestEventRepository_StoreBatch(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(records []*Record, mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, err error)
		records  []*Record
	}{
		{
			name: "success",
			mockFn: func(records []*Record, mock *mock.MockQuestDBClient) {
				mock.EXPECT().CopyFrom(
					gomock.Any(),
					pgx.Identifier{"mbo_events"},
					[]string{"timestamp", "symbol", "action", "side", "price", "size", "order_id", "sequence"},
					gomock.Any(),
				).Return(int64(len(records)), nil)
			},
			records: []*Record{testRecord(), testRecord()},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "empty batch is a no-op",
			mockFn:  func(records []*Record, mock *mock.MockQuestDBClient) {},
			records: nil,
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "error",
			mockFn: func(records []*Record, mock *mock.MockQuestDBClient) {
				mock.EXPECT().CopyFrom(
					gomock.Any(),
					pgx.Identifier{"mbo_events"},
					[]string{"timestamp", "symbol", "action", "side", "price", "size", "order_id", "sequence"},
					gomock.Any(),
				).Return(int64(0), errors.New("error"))
			},
			records: []*Record{testRecord()},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(tc.records, mock)

			repo := NewRepository(mock)
			err := repo.StoreBatch(context.Background(), tc.records)
			tc.assertFn(t, err)
		})
	}
}

func TestEventRepository_GetByFilter(t *testing.T) {
	from := time.Now().Add(-time.Hour)

	t.Run("query error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		client := mock.NewMockQuestDBClient(ctrl)
		client.EXPECT().
			Query(gomock.Any(), gomock.Any(), "ARL", from, 10).
			Return(nil, errors.New("error"))

		repo := NewRepository(client)
		_, err := repo.GetByFilter(context.Background(), Filter{Symbol: "ARL", From: &from, Limit: 10})
		assert.Error(t, err)
	})

	t.Run("scans rows", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		client := mock.NewMockQuestDBClient(ctrl)
		rows := mock.NewMockRowsInterface(ctrl)

		rows.EXPECT().Next().Return(true)
		rows.EXPECT().Scan(
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
		).Return(nil)
		rows.EXPECT().Next().Return(false)
		rows.EXPECT().Err().Return(nil)
		rows.EXPECT().Close()

		client.EXPECT().
			Query(gomock.Any(), gomock.Any(), "ARL").
			Return(rows, nil)

		repo := NewRepository(client)
		records, err := repo.GetByFilter(context.Background(), Filter{Symbol: "ARL"})
		assert.NoError(t, err)
		assert.Len(t, records, 1)
	})
}
