package host

import "github.com/stretchr/testify/mock"

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) RegisterAccessories(namespace string, platform string, accessories []*Accessory) error {
	return m.Called(namespace, platform, accessories).Error(0)
}

func (m *MockRegistry) UnregisterAccessories(namespace string, platform string, accessories []*Accessory) error {
	return m.Called(namespace, platform, accessories).Error(0)
}

func (m *MockRegistry) UpdateAccessories(accessories []*Accessory) error {
	return m.Called(accessories).Error(0)
}

var _ Registry = (*MockRegistry)(nil)
