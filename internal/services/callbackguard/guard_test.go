package callbackguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/domain"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func boolCmd(val bool, err error) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func TestGuard_FirstDelivery(t *testing.T) {
	tests := []struct {
		name    string
		cmd     *redis.BoolCmd
		want    bool
		wantErr bool
	}{
		{"first delivery", boolCmd(true, nil), true, false},
		{"redelivery", boolCmd(false, nil), false, false},
		{"redis down", boolCmd(false, errors.New("connection refused")), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRedis := new(MockRedisClient)
			mockRedis.On("SetNX", mock.Anything, "cmi:callback:A1|T1|verified_approved", mock.Anything, time.Hour).Return(tt.cmd)

			guard := NewGuard(mockRedis, "cmi", zap.NewNop())
			got, err := guard.FirstDelivery(context.Background(), "A1|T1|verified_approved", time.Hour)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			mockRedis.AssertExpectations(t)
		})
	}
}

func TestGuard_Release(t *testing.T) {
	mockRedis := new(MockRedisClient)
	ok := redis.NewIntCmd(context.Background())
	ok.SetVal(1)
	mockRedis.On("Del", mock.Anything, []string{"cmi:callback:A1|T1|verified_approved"}).Return(ok).Once()

	failed := redis.NewIntCmd(context.Background())
	failed.SetErr(errors.New("connection refused"))
	mockRedis.On("Del", mock.Anything, []string{"cmi:callback:B2|T2|verified_failed"}).Return(failed).Once()

	guard := NewGuard(mockRedis, "cmi", zap.NewNop())
	require.NoError(t, guard.Release(context.Background(), "A1|T1|verified_approved"))
	assert.ErrorContains(t, guard.Release(context.Background(), "B2|T2|verified_failed"), "callback guard")
	mockRedis.AssertExpectations(t)
}

func TestDeliveryKey(t *testing.T) {
	order := &domain.OrderReference{OrderID: "A1", TransactionID: "T1"}

	assert.Equal(t, "A1|T1|verified_approved", DeliveryKey(domain.ApprovedResult(domain.AckPostAuth, order)))
	assert.Equal(t, "A1|T1|verified_failed", DeliveryKey(domain.FailedResult("05", "", order)))
	assert.Equal(t, "", DeliveryKey(domain.RejectedResult(domain.RejectTampering, nil)))
}

// TestGuard_Redis runs against a local Redis when one is reachable
func TestGuard_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	guard := NewGuard(client, "cmi-test-"+time.Now().Format("150405.000000"), zap.NewNop())

	first, err := guard.FirstDelivery(ctx, "A1|T1|verified_approved", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.FirstDelivery(ctx, "A1|T1|verified_approved", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, guard.Release(ctx, "A1|T1|verified_approved"))
	retried, err := guard.FirstDelivery(ctx, "A1|T1|verified_approved", time.Minute)
	require.NoError(t, err)
	assert.True(t, retried)
}
