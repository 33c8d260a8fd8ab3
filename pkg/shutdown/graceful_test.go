package shutdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStop_ReverseOrderAndJoinedErrors(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := Stop(context.Background(),
		Func(func(context.Context) error { order = append(order, "server"); return nil }),
		nil,
		Func(func(context.Context) error { order = append(order, "prefetch"); return boom }),
	)

	assert.Equal(t, []string{"prefetch", "server"}, order)
	assert.ErrorIs(t, err, boom)
}

func TestStop_NothingToStop(t *testing.T) {
	assert.NoError(t, Stop(context.Background()))
}
