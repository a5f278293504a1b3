package driver

import (
	"context"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/stretchr/testify/mock"
)

type MockNode struct {
	mock.Mock
}

func (m *MockNode) ID() uint16 {
	return m.Called().Get(0).(uint16)
}

func (m *MockNode) Name() string {
	return m.Called().String(0)
}

func (m *MockNode) Manufacturer() string {
	return m.Called().String(0)
}

func (m *MockNode) Product() string {
	return m.Called().String(0)
}

func (m *MockNode) FirmwareVersion() string {
	return m.Called().String(0)
}

func (m *MockNode) Status() Status {
	return m.Called().Get(0).(Status)
}

func (m *MockNode) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockNode) SupportsCC(cc catalog.CommandClass) bool {
	return m.Called(cc).Bool(0)
}

func (m *MockNode) Endpoints() []Endpoint {
	return m.Called().Get(0).([]Endpoint)
}

func (m *MockNode) DefinedValueIDs() []ValueID {
	return m.Called().Get(0).([]ValueID)
}

func (m *MockNode) GetValue(id ValueID) (any, bool) {
	args := m.Called(id)
	return args.Get(0), args.Bool(1)
}

func (m *MockNode) GetValueMetadata(id ValueID) ValueMetadata {
	return m.Called(id).Get(0).(ValueMetadata)
}

func (m *MockNode) SetValue(ctx context.Context, id ValueID, v any) error {
	return m.Called(ctx, id, v).Error(0)
}

var _ Node = (*MockNode)(nil)
