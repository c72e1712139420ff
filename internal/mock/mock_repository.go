package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/g1heapviz/pkg/model"
)

// MockUploadRepository is a mock implementation of the UploadRepository interface.
type MockUploadRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockUploadRepository) Create(ctx context.Context, record *model.UploadRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockUploadRepository) Get(ctx context.Context, id int64) (*model.UploadRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadRecord), args.Error(1)
}

// List mocks the List method.
func (m *MockUploadRepository) List(ctx context.Context, limit int) ([]*model.UploadRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UploadRecord), args.Error(1)
}

// ExpectCreate sets up an expectation for Create.
func (m *MockUploadRepository) ExpectCreate(err error) *mock.Call {
	return m.On("Create", mock.Anything, mock.Anything).Return(err)
}

// ExpectList sets up an expectation for List.
func (m *MockUploadRepository) ExpectList(limit int, records []*model.UploadRecord, err error) *mock.Call {
	return m.On("List", mock.Anything, limit).Return(records, err)
}
