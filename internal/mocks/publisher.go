package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-engine/internal/events"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evs ...events.LoanEvent) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Types returns the event types of every Publish call, in order.
func (m *MockPublisher) Types() []events.Type {
	var types []events.Type
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]events.LoanEvent) {
			types = append(types, e.Type)
		}
	}
	return types
}
