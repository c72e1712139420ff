// Package mock provides mock implementations for testing.
package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/g1heapviz/pkg/model"
)

// MockParser is a mock implementation of the Parser interface.
type MockParser struct {
	mock.Mock
}

// Parse mocks the Parse method.
func (m *MockParser) Parse(ctx context.Context, reader io.Reader) ([]*model.HeapSnapshot, error) {
	args := m.Called(ctx, reader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.HeapSnapshot), args.Error(1)
}

// Name mocks the Name method.
func (m *MockParser) Name() string {
	args := m.Called()
	return args.String(0)
}

// ExpectParse sets up an expectation for Parse.
func (m *MockParser) ExpectParse(snapshots []*model.HeapSnapshot, err error) *mock.Call {
	return m.On("Parse", mock.Anything, mock.Anything).Return(snapshots, err)
}
