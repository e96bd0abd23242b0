// Package busmock is a hand-maintained go.uber.org/mock mock of bus.Bus,
// written in the style mockgen would generate, so coordinator and actor
// unit tests can stub bus behavior without a live membus.Bus.
package busmock

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/nbft-project/nbft/bus"
)

// MockBus is a mock of the bus.Bus interface.
type MockBus struct {
	ctrl     *gomock.Controller
	recorder *MockBusMockRecorder
}

// MockBusMockRecorder is the mock recorder for MockBus.
type MockBusMockRecorder struct {
	mock *MockBus
}

// NewMockBus creates a new mock instance.
func NewMockBus(ctrl *gomock.Controller) *MockBus {
	mock := &MockBus{ctrl: ctrl}
	mock.recorder = &MockBusMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBus) EXPECT() *MockBusMockRecorder {
	return m.recorder
}

func (m *MockBus) StreamAppend(ctx context.Context, key string, fields map[string]string) (uint64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StreamAppend", ctx, key, fields)
	ret0, _ := ret[0].(uint64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockBusMockRecorder) StreamAppend(ctx, key, fields any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StreamAppend", reflect.TypeOf((*MockBus)(nil).StreamAppend), ctx, key, fields)
}

func (m *MockBus) StreamScan(ctx context.Context, key string, fromID uint64, count int, block time.Duration) ([]bus.Record, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StreamScan", ctx, key, fromID, count, block)
	ret0, _ := ret[0].([]bus.Record)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockBusMockRecorder) StreamScan(ctx, key, fromID, count, block any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StreamScan", reflect.TypeOf((*MockBus)(nil).StreamScan), ctx, key, fromID, count, block)
}

func (m *MockBus) StreamLast(ctx context.Context, key string) (bus.Record, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StreamLast", ctx, key)
	ret0, _ := ret[0].(bus.Record)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockBusMockRecorder) StreamLast(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StreamLast", reflect.TypeOf((*MockBus)(nil).StreamLast), ctx, key)
}

func (m *MockBus) StreamRange(ctx context.Context, key string, lo, hi uint64) ([]bus.Record, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StreamRange", ctx, key, lo, hi)
	ret0, _ := ret[0].([]bus.Record)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockBusMockRecorder) StreamRange(ctx, key, lo, hi any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StreamRange", reflect.TypeOf((*MockBus)(nil).StreamRange), ctx, key, lo, hi)
}

func (m *MockBus) MapSet(ctx context.Context, key string, fields map[string]string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MapSet", ctx, key, fields)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockBusMockRecorder) MapSet(ctx, key, fields any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MapSet", reflect.TypeOf((*MockBus)(nil).MapSet), ctx, key, fields)
}

func (m *MockBus) MapGet(ctx context.Context, key string) (map[string]string, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MapGet", ctx, key)
	ret0, _ := ret[0].(map[string]string)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockBusMockRecorder) MapGet(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MapGet", reflect.TypeOf((*MockBus)(nil).MapGet), ctx, key)
}

func (m *MockBus) Delete(ctx context.Context, key string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockBusMockRecorder) Delete(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockBus)(nil).Delete), ctx, key)
}

var _ bus.Bus = (*MockBus)(nil)
