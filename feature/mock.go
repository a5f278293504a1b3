package feature

import (
	"context"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/host"
	"github.com/stretchr/testify/mock"
)

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandler) Update(ctx context.Context, ev *driver.ValueEvent) {
	m.Called(ctx, ev)
}

func (m *MockHandler) Rename(name string) {
	m.Called(name)
}

func (m *MockHandler) Stop() {
	m.Called()
}

func (m *MockHandler) EndpointIndex() uint16 {
	return m.Called().Get(0).(uint16)
}

func (m *MockHandler) Services() []*host.Service {
	return m.Called().Get(0).([]*host.Service)
}

func (m *MockHandler) Rebind(n driver.Node, ep driver.Endpoint) {
	m.Called(n, ep)
}

func (m *MockHandler) ImplName() string {
	return m.Called().String(0)
}

var _ Handler = (*MockHandler)(nil)
