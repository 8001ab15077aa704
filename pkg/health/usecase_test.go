package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func TestReadyAllOK(t *testing.T) {
	rep, err := NewService(stubChecker{name: "postgres"}, nil).Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", rep.Status)
	assert.Equal(t, map[string]string{"postgres": "ok"}, rep.Dependencies)
}

func TestReadyReportsEveryFailure(t *testing.T) {
	rep, err := NewService(
		stubChecker{name: "postgres"},
		stubChecker{name: "redis", err: errors.New("dial tcp: refused")},
	).Ready(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, "unavailable", rep.Status)
	assert.Equal(t, "ok", rep.Dependencies["postgres"])
	assert.Equal(t, "dial tcp: refused", rep.Dependencies["redis"])
}
