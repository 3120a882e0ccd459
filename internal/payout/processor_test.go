package payout

import (
	"context"
	"errors"
	"testing"

	"gramsetu/internal/database"
	dbmocks "gramsetu/internal/database/mocks"
	"gramsetu/internal/location"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"
	notifymocks "gramsetu/internal/notify/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	metrics.Init()
}

// fakeLocations - простая подмена Redis-хранилища позиций.
type fakeLocations struct {
	loc   *location.Location
	found bool
	err   error
}

func (f *fakeLocations) Get(_ context.Context, _ string) (*location.Location, bool, error) {
	return f.loc, f.found, f.err
}

func TestComputeForOrder_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	order := &model.Order{ID: "order-1", WarehouseID: "wh-1", Status: model.OrderDelivered}
	delivery := &model.Delivery{OrderID: "order-1", RiderID: "rider-1", DistanceKm: 12.5}
	payout := &model.Payout{
		ID: "payout-1", RiderID: "rider-1", WarehouseID: "wh-1",
		TotalDistance: 12.5, RatePerKm: 1000, ComputedAmount: 12500, Status: model.PayoutPending,
	}

	storage.EXPECT().GetOrderByID(gomock.Any(), "order-1").Return(order, nil)
	storage.EXPECT().GetDeliveryByOrder(gomock.Any(), "order-1").Return(delivery, nil)
	storage.EXPECT().ApplyPayout(gomock.Any(), "order-1", 12.5, int64(1000)).Return(payout, nil)
	storage.EXPECT().GetRider(gomock.Any(), "rider-1").Return(&model.Rider{ID: "rider-1", UserID: "user-9"}, nil)
	dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.AssignableToTypeOf(notify.Event{})).Do(func(_ context.Context, ev notify.Event) {
		assert.Equal(t, "user-9", ev.UserID)
		assert.Equal(t, notify.TypePayoutCreated, ev.Type)
	})

	got, err := p.ComputeForOrder(context.Background(), "order-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), got.ComputedAmount)
}

func TestComputeForOrder_NotDelivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	storage.EXPECT().GetOrderByID(gomock.Any(), "order-1").
		Return(&model.Order{ID: "order-1", Status: model.OrderInTransit}, nil)

	_, err := p.ComputeForOrder(context.Background(), "order-1", 1000)
	assert.ErrorIs(t, err, database.ErrOrderNotDelivered)
}

func TestComputeForOrder_AlreadyComputed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	storage.EXPECT().GetOrderByID(gomock.Any(), "order-1").
		Return(&model.Order{ID: "order-1", Status: model.OrderDelivered}, nil)
	storage.EXPECT().GetDeliveryByOrder(gomock.Any(), "order-1").
		Return(&model.Delivery{OrderID: "order-1", RiderID: "rider-1", DistanceKm: 5}, nil)
	storage.EXPECT().ApplyPayout(gomock.Any(), "order-1", 5.0, int64(1000)).
		Return(nil, database.ErrPayoutAlreadyComputed)

	_, err := p.ComputeForOrder(context.Background(), "order-1", 1000)
	assert.ErrorIs(t, err, database.ErrPayoutAlreadyComputed)
}

func TestResolveDistance_FallbackToRiderLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	locations := &fakeLocations{
		loc:   &location.Location{Latitude: 28.70, Longitude: 77.10},
		found: true,
	}
	p := NewProcessor(storage, notifymocks.NewMockDispatcher(ctrl), locations, 1000)

	storage.EXPECT().GetWarehouse(gomock.Any(), "wh-1").
		Return(&model.Warehouse{ID: "wh-1", Latitude: 28.61, Longitude: 77.21}, nil)

	order := &model.Order{ID: "order-1", WarehouseID: "wh-1", Status: model.OrderDelivered}
	delivery := &model.Delivery{OrderID: "order-1", RiderID: "rider-1", DistanceKm: 0}

	distance := p.resolveDistance(context.Background(), order, delivery)
	assert.Greater(t, distance, 10.0)
	assert.Less(t, distance, 20.0)
}

func TestResolveDistance_ZeroWhenUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	p := NewProcessor(storage, notifymocks.NewMockDispatcher(ctrl), &fakeLocations{found: false}, 1000)

	storage.EXPECT().GetWarehouse(gomock.Any(), "wh-1").
		Return(&model.Warehouse{ID: "wh-1"}, nil)

	order := &model.Order{ID: "order-1", WarehouseID: "wh-1"}
	delivery := &model.Delivery{OrderID: "order-1", RiderID: "rider-1"}

	assert.Zero(t, p.resolveDistance(context.Background(), order, delivery))
}

func TestProcessBatch_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	// Первый заказ считается успешно
	storage.EXPECT().GetOrderByID(gomock.Any(), "order-1").
		Return(&model.Order{ID: "order-1", WarehouseID: "wh-1", Status: model.OrderDelivered}, nil)
	storage.EXPECT().GetDeliveryByOrder(gomock.Any(), "order-1").
		Return(&model.Delivery{OrderID: "order-1", RiderID: "rider-1", DistanceKm: 3}, nil)
	storage.EXPECT().ApplyPayout(gomock.Any(), "order-1", 3.0, int64(1000)).
		Return(&model.Payout{ID: "payout-1", RiderID: "rider-1", ComputedAmount: 3000}, nil)
	storage.EXPECT().GetRider(gomock.Any(), "rider-1").
		Return(&model.Rider{ID: "rider-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any())

	// Второй падает, но не прерывает пакет
	storage.EXPECT().GetOrderByID(gomock.Any(), "order-2").
		Return(nil, database.ErrNotFound)

	result, err := p.ProcessBatch(context.Background(), []string{"order-1", "order-2"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PayoutsCreated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "order-2", result.Errors[0].OrderID)
}

func TestProcessBatch_EmptyListUsesCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	storage.EXPECT().ListPayoutCandidates(gomock.Any()).Return([]string{}, nil)

	result, err := p.ProcessBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Zero(t, result.PayoutsCreated)
	assert.Empty(t, result.Errors)
}

func TestRunRollup_NotifiesWarehouseAdmins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	dispatcher := notifymocks.NewMockDispatcher(ctrl)
	p := NewProcessor(storage, dispatcher, nil, 1000)

	stats := []database.SettlementStat{
		{WarehouseID: "wh-1", SettledCount: 2, TotalAmount: 25000},
	}
	storage.EXPECT().SettlePayouts(gomock.Any()).Return(stats, nil)
	storage.EXPECT().GetWarehouse(gomock.Any(), "wh-1").
		Return(&model.Warehouse{ID: "wh-1", AdminID: "admin-1"}, nil)
	dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Do(func(_ context.Context, ev notify.Event) {
		assert.Equal(t, "admin-1", ev.UserID)
		assert.Equal(t, notify.TypeSettlementComplete, ev.Type)
	})

	got, err := p.RunRollup(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRunRollup_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := dbmocks.NewMockStorage(ctrl)
	p := NewProcessor(storage, notifymocks.NewMockDispatcher(ctrl), nil, 1000)

	storage.EXPECT().SettlePayouts(gomock.Any()).Return(nil, errors.New("база недоступна"))

	_, err := p.RunRollup(context.Background())
	assert.Error(t, err)
}
