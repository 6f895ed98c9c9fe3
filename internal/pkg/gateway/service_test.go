package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetport/fleetport/app/models"
)

type fakeEventRepo struct {
	events map[string]*models.SettlementEvent
	nextID uint
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*models.SettlementEvent)}
}

func (f *fakeEventRepo) CreateEventIfNotExists(event *models.SettlementEvent) (bool, *models.SettlementEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		cp := *existing
		return false, &cp, nil
	}
	f.nextID++
	event.ID = f.nextID
	cp := *event
	f.events[key] = &cp
	stored := cp
	return true, &stored, nil
}

func (f *fakeEventRepo) MarkEventProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return nil
}

func TestRecordEventDeduplicates(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewService(repo)
	ctx := context.Background()

	in := EventInput{
		Provider:        "Stripe",
		ProviderEventID: "evt_1",
		EventType:       "payment.captured",
		PaymentID:       7,
		PayloadJSON:     `{"payment_id":7}`,
		SignatureValid:  true,
	}

	created, event, err := svc.RecordEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "stripe", event.Provider)

	// Replayed delivery of the same provider event.
	created, replay, err := svc.RecordEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, event.ID, replay.ID)
	assert.Len(t, repo.events, 1)
}

func TestRecordEventHashesMissingEventID(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewService(repo)
	ctx := context.Background()

	in := EventInput{Provider: "stripe", PayloadJSON: `{"payment_id":9}`}
	created, event, err := svc.RecordEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.ProviderEventID, "hash:")

	// Identical payload without an event id dedupes on the payload hash.
	created, _, err = svc.RecordEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRecordEventRequiresProvider(t *testing.T) {
	svc := NewService(newFakeEventRepo())
	_, _, err := svc.RecordEvent(context.Background(), EventInput{PayloadJSON: "{}"})
	require.Error(t, err)
}
