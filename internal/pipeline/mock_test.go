package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/privacy-cli/internal/harvest"
	"github.com/sells-group/privacy-cli/internal/publish"
	"github.com/sells-group/privacy-cli/internal/record"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Load(ctx context.Context) (*record.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Node), args.Error(1)
}

type mockHarvester struct {
	mock.Mock
}

func (m *mockHarvester) Harvest(ctx context.Context, candidates []record.CandidateLink) (harvest.Result, error) {
	args := m.Called(ctx, candidates)
	return args.Get(0).(harvest.Result), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, page publish.Page) (*publish.Published, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*publish.Published), args.Error(1)
}
