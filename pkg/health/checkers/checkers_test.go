package checkers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artem13815/hr-optimizer/pkg/health"
)

func TestPingWrapsFailure(t *testing.T) {
	var c health.Checker = Ping{name: "llm", ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	err := c.Check(context.Background())
	assert.Equal(t, "llm", c.Name())
	assert.EqualError(t, err, "llm ping: dial tcp: refused")
}

func TestPingOK(t *testing.T) {
	c := Ping{name: "noop", ping: func(context.Context) error { return nil }}
	assert.NoError(t, c.Check(context.Background()))
}
