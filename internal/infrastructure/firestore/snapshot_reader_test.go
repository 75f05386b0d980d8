package firestore

import (
	"context"
	"errors"
	"testing"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupOf(byID map[string]*entity.Customer, calls *int) customerLookup {
	return func(_ context.Context, id string) (*entity.Customer, error) {
		*calls++
		return byID[id], nil
	}
}

func TestFindCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("key match skips the field query", func(t *testing.T) {
		var keyCalls, fieldCalls int
		byKey := lookupOf(map[string]*entity.Customer{"cus_1": {ID: "cus_1"}}, &keyCalls)
		byField := lookupOf(nil, &fieldCalls)

		c, err := findCustomer(ctx, "cus_1", byKey, byField)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "cus_1", c.ID)
		assert.Equal(t, 0, fieldCalls)
	})

	t.Run("document under another key is found by id field", func(t *testing.T) {
		var keyCalls, fieldCalls int
		byKey := lookupOf(nil, &keyCalls)
		byField := lookupOf(map[string]*entity.Customer{"cus_2": {ID: "cus_2", Email: "b@x.co"}}, &fieldCalls)

		c, err := findCustomer(ctx, "cus_2", byKey, byField)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "b@x.co", c.Email)
		assert.Equal(t, 1, fieldCalls)
	})

	t.Run("key hit whose id field differs falls through", func(t *testing.T) {
		var keyCalls, fieldCalls int
		byKey := lookupOf(map[string]*entity.Customer{"cus_3": {ID: "cus_other"}}, &keyCalls)
		byField := lookupOf(map[string]*entity.Customer{"cus_3": {ID: "cus_3"}}, &fieldCalls)

		c, err := findCustomer(ctx, "cus_3", byKey, byField)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "cus_3", c.ID)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		var keyCalls, fieldCalls int
		c, err := findCustomer(ctx, "cus_404", lookupOf(nil, &keyCalls), lookupOf(nil, &fieldCalls))
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.Equal(t, 1, fieldCalls)
	})

	t.Run("key lookup error is returned", func(t *testing.T) {
		boom := errors.New("unavailable")
		var fieldCalls int
		byKey := func(context.Context, string) (*entity.Customer, error) { return nil, boom }

		_, err := findCustomer(ctx, "cus_1", byKey, lookupOf(nil, &fieldCalls))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, fieldCalls)
	})
}
