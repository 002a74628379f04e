package publish

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, cmd Command) (string, string, error) {
	args := m.Called(ctx, cmd)
	return args.String(0), args.String(1), args.Error(2)
}

// gitCmd matches a git invocation by its joined arguments.
func gitCmd(args string) any {
	return mock.MatchedBy(func(c Command) bool {
		return c.Name == "git" && strings.Join(c.Args, " ") == args
	})
}
