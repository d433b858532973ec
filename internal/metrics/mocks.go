package metrics

import (
	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockMetricsService is a mock implementation of MetricsService
type MockMetricsService struct {
	mock.Mock
}

var _ MetricsService = (*MockMetricsService)(nil)

// NewMockMetricsService creates a new mock metrics service
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

func (m *MockMetricsService) RegisterPoolMetrics(channel string, pool pond.Pool) {
	m.Called(channel, pool)
}

func (m *MockMetricsService) GetRegistry() *prometheus.Registry {
	args := m.Called()
	return args.Get(0).(*prometheus.Registry)
}

func (m *MockMetricsService) IncNumRequests(endpoint, method string, statusCode int) {
	m.Called(endpoint, method, statusCode)
}

func (m *MockMetricsService) ObserveRequestDuration(endpoint, method string, duration float64) {
	m.Called(endpoint, method, duration)
}

func (m *MockMetricsService) IncSchemaRefresh(backend, result string) {
	m.Called(backend, result)
}

func (m *MockMetricsService) ObserveSchemaRefreshDuration(backend string, duration float64) {
	m.Called(backend, duration)
}

func (m *MockMetricsService) IncSchemaRefreshRetries(backend string) {
	m.Called(backend)
}

func (m *MockMetricsService) SetSchemaKnownNames(backend, kind string, count int) {
	m.Called(backend, kind, count)
}

func (m *MockMetricsService) SetSchemaLastRefresh(backend string, unixSeconds float64) {
	m.Called(backend, unixSeconds)
}

func (m *MockMetricsService) ObserveSplitDuration(operation string, duration float64) {
	m.Called(operation, duration)
}

func (m *MockMetricsService) IncSplitProjections(backend string) {
	m.Called(backend)
}

func (m *MockMetricsService) IncSplitUnserved() {
	m.Called()
}

func (m *MockMetricsService) IncSplitErrors(operation, errorType string) {
	m.Called(operation, errorType)
}

func (m *MockMetricsService) ObserveDBQueryDuration(queryType, table string, duration float64) {
	m.Called(queryType, table, duration)
}

func (m *MockMetricsService) IncDBQuery(queryType, table string) {
	m.Called(queryType, table)
}

func (m *MockMetricsService) IncDBQueryError(queryType, table, errorType string) {
	m.Called(queryType, table, errorType)
}
